package planner

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"

	"github.com/freeeve/hexcommand/pkg/hexmap"
)

// Field is a dense float64 value per hex, shape (Height, Width), indexed
// (I, J) like hexmap.Network.Hex.
type Field struct {
	d *tensor.Dense
}

// NewField returns a zero field of the given shape.
func NewField(height, width int) *Field {
	return &Field{d: tensor.New(
		tensor.WithShape(height, width),
		tensor.Of(tensor.Float64),
		tensor.WithBacking(make([]float64, height*width)),
	)}
}

func fieldFor(n *hexmap.Network) *Field { return NewField(n.Height, n.Width) }

func wrap(d *tensor.Dense, err error) (*Field, error) {
	if err != nil {
		return nil, err
	}
	return &Field{d: d}, nil
}

// Shape returns (height, width).
func (f *Field) Shape() (height, width int) {
	s := f.d.Shape()
	return s[0], s[1]
}

// Data is the row-major backing slice. Writes through it change the field.
func (f *Field) Data() []float64 { return f.d.Data().([]float64) }

func (f *Field) At(i, j int) float64 {
	_, w := f.Shape()
	return f.Data()[i*w+j]
}

func (f *Field) Set(i, j int, v float64) {
	_, w := f.Shape()
	f.Data()[i*w+j] = v
}

func (f *Field) Add(i, j int, v float64) {
	_, w := f.Shape()
	f.Data()[i*w+j] += v
}

// Rows copies the field out as [I][J] for serialization.
func (f *Field) Rows() [][]float64 {
	h, w := f.Shape()
	data := f.Data()
	out := make([][]float64, h)
	for i := range out {
		out[i] = append([]float64(nil), data[i*w:(i+1)*w]...)
	}
	return out
}

// FindMax returns the largest value and its (I, J). The first maximum in
// row-major order wins.
func (f *Field) FindMax() (v float64, i, j int) {
	data := f.Data()
	if len(data) == 0 {
		return 0, -1, -1
	}
	_, w := f.Shape()
	k := floats.MaxIdx(data)
	return data[k], k / w, k % w
}

func (f *Field) check(o *Field) error {
	h1, w1 := f.Shape()
	h2, w2 := o.Shape()
	if h1 != h2 || w1 != w2 {
		return fmt.Errorf("planner: field shape (%d,%d) vs (%d,%d)", h1, w1, h2, w2)
	}
	return nil
}

// Engagement is friendly times enemy, elementwise.
func Engagement(friendly, enemy *Field) (*Field, error) {
	if err := friendly.check(enemy); err != nil {
		return nil, err
	}
	return wrap(friendly.d.Mul(enemy.d))
}

// Control is friendly minus enemy.
func Control(friendly, enemy *Field) (*Field, error) {
	if err := friendly.check(enemy); err != nil {
		return nil, err
	}
	return wrap(friendly.d.Sub(enemy.d))
}

// AssignValue is vp - 0.1*friendly + 0.2*enemy.
func AssignValue(vp, friendly, enemy *Field) (*Field, error) {
	if err := vp.check(friendly); err != nil {
		return nil, err
	}
	if err := vp.check(enemy); err != nil {
		return nil, err
	}
	f, err := friendly.d.MulScalar(0.1, true)
	if err != nil {
		return nil, err
	}
	e, err := enemy.d.MulScalar(0.2, true)
	if err != nil {
		return nil, err
	}
	out, err := vp.d.Sub(f)
	if err != nil {
		return nil, err
	}
	return wrap(out.Add(e))
}
