// SPDX-License-Identifier: MIT

package clip

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// File is the YAML clip format read by Load:
//
//	id: walk_forward
//	frameRate: 120
//	root: hips            # optional
//	times: [0, 0.0083]    # optional, defaults to uniform spacing
//	joints:
//	  - name: hips
//	    parent: -1
//	    positions: [[0, 90, 0], [0.4, 90, 0]]
//	    rotations: [[1, 0, 0, 0], [1, 0, 0, 0]]   # w, x, y, z; optional
type File struct {
	ID        string      `yaml:"id"`
	FrameRate float64     `yaml:"frameRate"`
	Root      string      `yaml:"root,omitempty"`
	Times     []float64   `yaml:"times,omitempty"`
	Joints    []FileJoint `yaml:"joints"`
}

// FileJoint is one joint entry of File.
type FileJoint struct {
	Name      string       `yaml:"name"`
	Parent    int          `yaml:"parent"`
	Positions [][3]float64 `yaml:"positions"`
	Rotations [][4]float64 `yaml:"rotations,omitempty"`
}

// Load decodes one YAML clip from r.
func Load(r io.Reader) (*Clip, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("clip: decode: %w", err)
	}

	return f.Clip()
}

// LoadFile reads a YAML clip from path.
func LoadFile(path string) (*Clip, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("clip: open %s: %w", path, err)
	}
	defer fh.Close()

	c, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Clip converts the decoded file into a validated Clip.
func (f *File) Clip() (*Clip, error) {
	spec := Spec{
		ID:        f.ID,
		FrameRate: f.FrameRate,
		Times:     f.Times,
		Root:      f.Root,
		Joints:    make([]Joint, len(f.Joints)),
		Tracks:    make([]Track, len(f.Joints)),
	}
	for j, fj := range f.Joints {
		spec.Joints[j] = Joint{Name: fj.Name, Parent: fj.Parent}
		tr := Track{Positions: make([]r3.Vec, len(fj.Positions))}
		for i, p := range fj.Positions {
			tr.Positions[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		if len(fj.Rotations) > 0 {
			tr.Rotations = make([]quat.Number, len(fj.Rotations))
			for i, q := range fj.Rotations {
				tr.Rotations[i] = quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
			}
		}
		spec.Tracks[j] = tr
	}

	return New(spec)
}

// ToFile converts c back into its YAML representation.
func (c *Clip) ToFile() *File {
	f := &File{
		ID:        c.id,
		FrameRate: c.frameRate,
		Root:      c.joints[c.root].Name,
		Times:     append([]float64(nil), c.times...),
		Joints:    make([]FileJoint, len(c.joints)),
	}
	for j, jt := range c.joints {
		fj := FileJoint{Name: jt.Name, Parent: jt.Parent}
		for _, p := range c.tracks[j].Positions {
			fj.Positions = append(fj.Positions, [3]float64{p.X, p.Y, p.Z})
		}
		for _, q := range c.tracks[j].Rotations {
			fj.Rotations = append(fj.Rotations, [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag})
		}
		f.Joints[j] = fj
	}

	return f
}
