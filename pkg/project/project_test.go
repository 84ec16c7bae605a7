package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDetect_PythonProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"demo\"\n")
	writeFile(t, dir, "requirements.txt", "flask==3.0\n")

	info, err := Detect(dir)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(info.Root))
	assert.Equal(t, []string{"pyproject.toml", "requirements.txt"}, info.PythonMarkers)
	assert.True(t, info.IsPython())
	assert.False(t, info.IsGo())
	assert.Equal(t, "python", info.Kind())
}

func TestDetect_GoModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/demo\n\ngo 1.22\n")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo", info.GoModule)
	assert.Equal(t, "1.22", info.GoVersion)
	assert.Equal(t, "go", info.Kind())
}

func TestDetect_Mixed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/demo\n")
	writeFile(t, dir, "setup.py", "")

	info, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, "mixed", info.Kind())
}

func TestDetect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Detect(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNotDirectory)

	writeFile(t, dir, "file.py", "print('x')")
	_, err = Detect(filepath.Join(dir, "file.py"))
	assert.ErrorIs(t, err, ErrNotDirectory)

}

func TestDetect_BrokenGoModIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module \"example.com/demo\n")
	writeFile(t, dir, "requirements.txt", "flask\n")

	info, err := Detect(dir)
	require.NoError(t, err)
	require.Error(t, info.GoModErr)
	assert.Contains(t, info.GoModErr.Error(), "go.mod")
	assert.Empty(t, info.GoModule)
	assert.Equal(t, "python", info.Kind())
}

func TestDetect_Unknown(t *testing.T) {
	info, err := Detect(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "unknown", info.Kind())
}
