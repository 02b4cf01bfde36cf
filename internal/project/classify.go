// Package project inspects a repository checkout to classify its toolchain
// and collect facts worth surfacing to the summarization prompt.
package project

import (
	"os"
	"path/filepath"
)

// Type is the coarse toolchain classification of a repository.
type Type string

const (
	// TypeNodeJS means a package.json manifest was found at the root.
	TypeNodeJS Type = "nodejs"

	// TypePython means a requirements.txt manifest was found at the root.
	TypePython Type = "python"

	// TypeUnknown means neither manifest was found. Unknown repositories
	// are deliberately driven with the Python toolchain downstream; see
	// the health builder.
	TypeUnknown Type = "unknown"
)

// Classify determines the project type from marker files at the repository
// root. The check order is a fixed priority: a Node manifest wins over a
// Python manifest when both are present. Only root-level files are
// considered; nothing is read recursively and nothing is parsed.
func Classify(dir string) Type {
	if fileExists(filepath.Join(dir, "package.json")) {
		return TypeNodeJS
	}
	if fileExists(filepath.Join(dir, "requirements.txt")) {
		return TypePython
	}
	return TypeUnknown
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
