package plumed

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	mfi "github.com/rmera/gomfi"
)

const hills = `#! FIELDS time phi psi sigma_phi sigma_psi height biasf
#! SET multi_2
1 0.1 0.2 0.3 0.3 1.2 10
2 0.4 0.5 0.3 0.3 1.1 10
3 0.7 0.8 0.3 0.3 1.0 10
`

const colvar = `#! FIELDS time phi psi metad.bias
0 1.0 2.0 0.0
1 1.1 2.1 0.1
2 1.2 2.2 0.2
3 1.3 2.3 0.3
`

func write(Te *testing.T, name, content string) string {
	name = filepath.Join(Te.TempDir(), name)
	f, err := os.Create(name)
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	switch filepath.Ext(name) {
	case ".gz":
		w := gzip.NewWriter(f)
		w.Write([]byte(content))
		err = w.Close()
	case ".zst":
		w, _ := zstd.NewWriter(f)
		w.Write([]byte(content))
		err = w.Close()
	default:
		_, err = f.Write([]byte(content))
	}
	if err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestReadHills(Te *testing.T) {
	for _, name := range []string{"HILLS", "HILLS.gz", "HILLS.zst"} {
		H, err := ReadHills(write(Te, name, hills))
		if err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		r, c := H.Dims()
		if r != 3 || c != mfi.HillColumns {
			Te.Fatalf("%s: got %dx%d hills", name, r, c)
		}
		//first row duplicated with zero height, last row dropped.
		if H.At(0, mfi.HillX) != 0.1 || H.At(0, mfi.HillHeight) != 0 {
			Te.Errorf("%s: wrong first hill %v", name, H.RawRowView(0))
		}
		if H.At(1, mfi.HillX) != 0.1 || H.At(1, mfi.HillHeight) != 1.2 {
			Te.Errorf("%s: wrong second hill %v", name, H.RawRowView(1))
		}
		if H.At(2, mfi.HillY) != 0.5 || H.At(2, mfi.HillGamma) != 10 {
			Te.Errorf("%s: wrong last hill %v", name, H.RawRowView(2))
		}
	}
}

func TestHillsWithoutBiasFactor(Te *testing.T) {
	H, err := ParseHills(strings.NewReader("1 0.1 0.2 0.3 0.3 1.2\n2 0.4 0.5 0.3 0.3 1.1\n"))
	if err != nil {
		Te.Fatal(err)
	}
	if H.At(1, mfi.HillGamma) != 0 || H.At(1, mfi.HillSigmaY) != 0.3 {
		Te.Errorf("wrong hill %v", H.RawRowView(1))
	}
	if _, err := ParseHills(strings.NewReader("1 0.1 0.2\n")); err == nil {
		Te.Errorf("expected an error for a short row")
	}
	if _, err := ParseHills(strings.NewReader("# nothing\n")); err == nil {
		Te.Errorf("expected an error for an empty file")
	}
}

func TestReadColvar(Te *testing.T) {
	cvx, cvy, err := ReadColvar(write(Te, "COLVAR.gz", colvar))
	if err != nil {
		Te.Fatal(err)
	}
	if len(cvx) != 3 || cvx[0] != 1.0 || cvy[2] != 2.2 {
		Te.Errorf("wrong positions %v %v", cvx, cvy)
	}
	name := write(Te, "COLVAR", colvar)
	fx, fy, err := ReadColvarFields(name, "psi", "metad.bias")
	if err != nil {
		Te.Fatal(err)
	}
	if len(fx) != 3 || fx[1] != 2.1 || fy[1] != 0.1 {
		Te.Errorf("wrong fields %v %v", fx, fy)
	}
	if _, _, err := ReadColvarFields(name, "psi", "theta"); err == nil {
		Te.Errorf("expected an error for a missing field")
	}
	if _, _, err := ParseColvar(strings.NewReader("0 1 2\n"), 1, 2); err == nil {
		Te.Errorf("expected an error for a single row")
	}
}

func TestOpenMissing(Te *testing.T) {
	if _, err := Open(filepath.Join(Te.TempDir(), "nope.gz")); err == nil {
		Te.Errorf("expected an error for a missing file")
	}
}
