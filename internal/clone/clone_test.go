package clone

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/org/repo.git", "https://example.com/org/repo.git"},
		{"https://example.com/org/repo?tab=readme", "https://example.com/org/repo"},
		{"https://example.com/org/repo?a=1&b=2", "https://example.com/org/repo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeURL(tt.in))
	}
}

// initLocalRepo creates a git repository with one commit to clone from.
func initLocalRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	run("config", "user.name", "Test User")
	run("config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi\n"), 0644))
	run("add", "-A")
	run("commit", "-m", "initial commit")

	return dir
}

func TestCloneLocalRepo(t *testing.T) {
	ctx := context.Background()
	cloner, err := NewCloner(ctx)
	require.NoError(t, err)

	src := initLocalRepo(t)
	dest := filepath.Join(t.TempDir(), "checkout")

	require.NoError(t, cloner.Clone(ctx, src, dest))
	assert.FileExists(t, filepath.Join(dest, "hello.txt"))
}

func TestCloneFailureCarriesStderr(t *testing.T) {
	ctx := context.Background()
	cloner, err := NewCloner(ctx)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "checkout")
	err = cloner.Clone(ctx, filepath.Join(t.TempDir(), "no-repo-here"), dest)

	require.Error(t, err)
	var cloneErr *Error
	require.True(t, errors.As(err, &cloneErr))
	assert.NotEmpty(t, cloneErr.Error())
}
