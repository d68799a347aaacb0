package localfile

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReadMissing(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "/data")
	_, err := s.Read("inventory.csv")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestStore_WriteThenRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/data")

	require.NoError(t, s.Write("inventory.csv", []byte("v1")))
	require.NoError(t, s.Write("inventory.csv", []byte("v2")), "覆盖写入")

	data, err := s.Read("inventory.csv")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "不应残留临时文件")
}

func TestStore_WriteFailure(t *testing.T) {
	s := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")
	err := s.Write("inventory.csv", []byte("x"))
	require.Error(t, err)
}
