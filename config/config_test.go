package config

import (
	"os"
	"path/filepath"
	"testing"

	mfi "github.com/rmera/gomfi"
	"github.com/rmera/gomfi/fes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	g, err := c.NewGrid()
	require.NoError(t, err)
	assert.Equal(t, DefaultBins, g.NBins(0))
	assert.True(t, g.Periodic(1))
	assert.Equal(t, mfi.DefaultExtension, g.Extension())

	O := c.Options()
	assert.Equal(t, 1.0, O.Bandwidth)
	assert.True(t, O.WellTempered)
	assert.Equal(t, "mfi", O.Name)
	m, err := c.Method()
	require.NoError(t, err)
	assert.Equal(t, fes.FFTMethod, m)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.MFI.Bandwidth = 0.05
	c.FES.Method = "sparse"
	c.FES.IntConst = 2
	c.Walkers = []WalkerConfig{{Name: "w0", Hills: "HILLS.0", Colvar: "COLVAR.0"}}
	path := filepath.Join(dir, "mfi.yaml")
	require.NoError(t, Save(path, c))
	c2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, c2)
	assert.Equal(t, 2.0, c2.SparseOptions().IntConst)
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mfi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mfi:\n  bandwidth: 0.1\ngrid:\n  bins: [50, 60]\n"), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, c.MFI.Bandwidth)
	assert.Equal(t, 1.0, c.MFI.KT)
	assert.Equal(t, [2]int{50, 60}, c.Grid.Bins)
	assert.Equal(t, DefaultHills, c.Hills)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"bins.yaml":    "grid:\n  bins: [1, 60]\n",
		"method.yaml":  "fes:\n  method: simpson\n",
		"fields.yaml":  "colvar_fields: [phi]\n",
		"walkers.yaml": "walkers:\n  - name: a\n    hills: HILLS\n",
		"syntax.yaml":  "grid: [\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
