package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	mfi "github.com/rmera/gomfi"
	"gonum.org/v1/gonum/mat"
)

// Point is one row of the CSV export.
type Point struct {
	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Density float64 `csv:"density"`
	ForceX  float64 `csv:"force_x"`
	ForceY  float64 `csv:"force_y"`
	Error   float64 `csv:"error"`
	FES     float64 `csv:"fes"`
}

// Points returns one Point per grid point of R, row by row. The error and the
// free energy surface fes are optional, and left as zero if nil.
func Points(R *mfi.Result, fes *mat.Dense) ([]*Point, error) {
	if R.X == nil || R.Y == nil || R.Density == nil || R.ForceX == nil || R.ForceY == nil {
		return nil, fmt.Errorf("archive: incomplete result")
	}
	r, c := R.X.Dims()
	for _, m := range []*mat.Dense{R.Y, R.Density, R.ForceX, R.ForceY, R.Error, fes} {
		if m == nil {
			continue
		}
		if mr, mc := m.Dims(); mr != r || mc != c {
			return nil, fmt.Errorf("archive: field of %dx%d on a %dx%d grid", mr, mc, r, c)
		}
	}
	ret := make([]*Point, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p := &Point{
				X:       R.X.At(i, j),
				Y:       R.Y.At(i, j),
				Density: R.Density.At(i, j),
				ForceX:  R.ForceX.At(i, j),
				ForceY:  R.ForceY.At(i, j),
			}
			if R.Error != nil {
				p.Error = R.Error.At(i, j)
			}
			if fes != nil {
				p.FES = fes.At(i, j)
			}
			ret = append(ret, p)
		}
	}
	return ret, nil
}

// WriteCSV writes R and the optional surface fes to w as CSV, with a header.
func WriteCSV(w io.Writer, R *mfi.Result, fes *mat.Dense) error {
	p, err := Points(R, fes)
	if err != nil {
		return err
	}
	return gocsv.Marshal(p, w)
}

// WriteCSVFile writes R and the optional surface fes to the file name as CSV.
func WriteCSVFile(name string, R *mfi.Result, fes *mat.Dense) error {
	return create(name, func(w io.Writer) error { return WriteCSV(w, R, fes) })
}

// ReadCSVFile reads the points written by WriteCSVFile.
func ReadCSVFile(name string) ([]*Point, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var p []*Point
	if err := gocsv.UnmarshalFile(f, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}
