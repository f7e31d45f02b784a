// SPDX-License-Identifier: MIT

package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// codec packs float tables into compressed blobs.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	return &codec{enc: enc, dec: dec}, nil
}

// pack encodes v as msgpack, then zstd.
func (c *codec) pack(v []float64) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: pack: %w", err)
	}

	return c.enc.EncodeAll(raw, nil), nil
}

// unpack reverses pack.
func (c *codec) unpack(blob []byte) ([]float64, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("store: unpack: %w", err)
	}
	var v []float64
	if err = msgpack.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("store: unpack: %w", err)
	}

	return v, nil
}

func (c *codec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}
