package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Type
	}{
		{"node manifest", []string{"package.json"}, TypeNodeJS},
		{"python manifest", []string{"requirements.txt"}, TypePython},
		{"no manifest", nil, TypeUnknown},
		{"node wins over python", []string{"package.json", "requirements.txt"}, TypeNodeJS},
		{"unrelated files only", []string{"main.go", "README.md"}, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, dir, f, "{}")
			}
			assert.Equal(t, tt.want, Classify(dir))
		})
	}
}

func TestClassifyIgnoresNestedManifests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "frontend"), 0755))
	touch(t, dir, filepath.Join("frontend", "package.json"), "{}")

	assert.Equal(t, TypeUnknown, Classify(dir))
}

func TestClassifyManifestMustBeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "package.json"), 0755))

	assert.Equal(t, TypeUnknown, Classify(dir))
}
