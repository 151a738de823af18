package dockerfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/pkg/support"
)

// newTestContext lays out a support directory and a build context next to
// each other so hard links work.
func newTestContext(t *testing.T, names ...string) (support.Source, string, string) {
	t.Helper()
	root := t.TempDir()

	supportDir := filepath.Join(root, "container-code")
	require.NoError(t, os.MkdirAll(supportDir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(supportDir, name), []byte("print('hi')\n"), 0644))
	}

	dstDir := filepath.Join(root, "build")
	stagingDir := filepath.Join(dstDir, "files")
	require.NoError(t, os.MkdirAll(stagingDir, 0755))

	return support.NewSource(supportDir), dstDir, stagingDir
}

func TestEmit(t *testing.T) {
	src, dstDir, stagingDir := newTestContext(t, "session_runner.py")
	e := NewEmitter(dstDir, stagingDir, src, zerolog.Nop())

	content, err := e.Emit(newTestProperties(t))
	require.NoError(t, err)
	assert.Equal(t, defaultDockerfile, content)

	written, err := os.ReadFile(filepath.Join(dstDir, FileName))
	require.NoError(t, err)
	assert.Equal(t, content, string(written))

	staged := filepath.Join(stagingDir, "session_runner.py")
	stagedInfo, err := os.Stat(staged)
	require.NoError(t, err)
	srcInfo, err := os.Stat(filepath.Join(src.Dir, "session_runner.py"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, stagedInfo), "the support file must be hard linked")
}

func TestEmitSeveralFiles(t *testing.T) {
	src, dstDir, stagingDir := newTestContext(t, "a.py", "b.py")
	src.Names = []string{"a.py", "b.py"}
	e := NewEmitter(dstDir, stagingDir, src, zerolog.Nop())

	content, err := e.Emit(newTestProperties(t))
	require.NoError(t, err)
	assert.Contains(t, content, "COPY files/a.py /karton/a.py\nCOPY files/b.py /karton/b.py\n")
}

func TestEmitMissingSupportFile(t *testing.T) {
	src, dstDir, stagingDir := newTestContext(t)
	e := NewEmitter(dstDir, stagingDir, src, zerolog.Nop())

	_, err := e.Emit(newTestProperties(t))
	require.Error(t, err)

	var rtErr *errors.RuntimeError
	assert.ErrorAs(t, err, &rtErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(filepath.Join(dstDir, FileName))
	assert.True(t, os.IsNotExist(statErr), "no Dockerfile must be written when staging fails")
}

func TestEmitTwiceFails(t *testing.T) {
	src, dstDir, stagingDir := newTestContext(t, "session_runner.py")
	e := NewEmitter(dstDir, stagingDir, src, zerolog.Nop())

	_, err := e.Emit(newTestProperties(t))
	require.NoError(t, err)

	_, err = e.Emit(newTestProperties(t))
	require.Error(t, err, "a staged file is never overwritten")
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestPreviewMatchesEmit(t *testing.T) {
	src, dstDir, stagingDir := newTestContext(t, "session_runner.py")
	p := newTestProperties(t)
	require.NoError(t, p.AddPackages("git"))

	preview, err := Preview(p, src, "files")
	require.NoError(t, err)

	emitted, err := NewEmitter(dstDir, stagingDir, src, zerolog.Nop()).Emit(p)
	require.NoError(t, err)
	assert.Equal(t, emitted, preview)
}
