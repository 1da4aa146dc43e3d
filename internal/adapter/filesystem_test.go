package adapter

import (
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/pavzaj/visualmutator/internal/model"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("writes and creates directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		err := WriteFileAtomic(fs, "/out/AOR/1/Calc.vmod", func(w io.Writer) error {
			_, err := w.Write([]byte("payload"))
			return err
		})
		require.NoError(t, err)

		content, err := afero.ReadFile(fs, "/out/AOR/1/Calc.vmod")
		require.NoError(t, err)
		assert.Equal(t, "payload", string(content))

		entries, err := afero.ReadDir(fs, "/out/AOR/1")
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temp file left behind")
	})

	t.Run("failed write leaves target untouched", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/out/Calc.vmod", []byte("old"), 0o644))

		boom := errors.New("boom")
		err := WriteFileAtomic(fs, "/out/Calc.vmod", func(w io.Writer) error {
			_, _ = w.Write([]byte("partial"))
			return boom
		})
		require.ErrorIs(t, err, boom)

		content, err := afero.ReadFile(fs, "/out/Calc.vmod")
		require.NoError(t, err)
		assert.Equal(t, "old", string(content))

		entries, err := afero.ReadDir(fs, "/out")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestFileExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dir/file", []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"regular file", "/dir/file", true},
		{"directory", "/dir", false},
		{"missing", "/dir/missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FileExists(fs, m.Path(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
