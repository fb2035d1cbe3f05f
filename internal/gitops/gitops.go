// Package gitops records project changes as git commits.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who a commit is recorded for. It is used as both
// author and committer so commits work without a global git identity.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

func (a Author) env() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME="+a.Name,
		"GIT_AUTHOR_EMAIL="+a.Email,
		"GIT_COMMITTER_NAME="+a.Name,
		"GIT_COMMITTER_EMAIL="+a.Email,
	)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := git(dir, nil, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message string, author Author) (string, error) {
	return Commit(dir, message, author, "-A")
}

// Commit stages paths (relative to dir) and commits them. It returns an
// empty hash without error when the paths hold no changes.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("git commit: no paths given")
	}
	args := append([]string{"add"}, paths...)
	if paths[0] != "-A" {
		args = append([]string{"add", "--"}, paths...)
	}
	if _, err := git(dir, nil, args...); err != nil {
		return "", err
	}

	if _, err := git(dir, nil, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}

	if _, err := git(dir, author.env(), "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}

	out, err := git(dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func git(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
