package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDefinition(t *testing.T, root, image string) string {
	t.Helper()
	dir := filepath.Join(root, ImagesDir, filepath.FromSlash(image))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "definition.hcl"), []byte(`setup_image "p" {}`), 0644))
	return dir
}

func TestFindDefinition(t *testing.T) {
	root := t.TempDir()
	want := makeDefinition(t, root, "dev")
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	tests := []struct {
		name  string
		start string
	}{
		{name: "from the root", start: root},
		{name: "from a nested directory", start: nested},
		{name: "from the definition directory", start: want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindDefinition(tt.start, "dev")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFindDefinitionNamespaced(t *testing.T) {
	root := t.TempDir()
	want := makeDefinition(t, root, "team/dev")

	got, err := FindDefinition(root, "team/dev")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindDefinitionNotFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ImagesDir, "dev"), 0755))

	_, err := FindDefinition(root, "dev")
	assert.ErrorIs(t, err, ErrNotFound, "a directory without a definition file does not count")

	_, err = FindDefinition(root, "other")
	assert.ErrorIs(t, err, ErrNotFound)
}
