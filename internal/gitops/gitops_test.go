package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Author{Name: "Test Author", Email: "test@example.com"}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format="+format, "-1")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	err := Init(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte("hello"), 0o644))

	hash, err := CommitAll(dir, "init: test commit", testAuthor)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Equal(t, "init: test commit", gitLog(t, dir, "%s"))
	assert.Equal(t, testAuthor.String(), gitLog(t, dir, "%an <%ae>"))
	assert.Equal(t, testAuthor.String(), gitLog(t, dir, "%cn <%ce>"))
}

func TestCommit_OnlyNamedPaths(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0o644))

	hash, err := Commit(dir, "reconcile: a", testAuthor, "a.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	status := exec.Command("git", "status", "--porcelain")
	status.Dir = dir
	out, err := status.Output()
	require.NoError(t, err)
	assert.Equal(t, "?? b.csv", strings.TrimSpace(string(out)))
}

func TestCommit_NothingToCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("a"), 0o644))
	_, err := CommitAll(dir, "first", testAuthor)
	require.NoError(t, err)

	hash, err := Commit(dir, "again", testAuthor, "a.csv")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.Equal(t, "first", gitLog(t, dir, "%s"))
}

func TestCommit_NoPaths(t *testing.T) {
	_, err := Commit(t.TempDir(), "msg", testAuthor)
	assert.Error(t, err)
}
