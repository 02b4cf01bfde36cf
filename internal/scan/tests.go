// Package scan walks repository trees: test-convention detection and
// bounded source sampling for the summarization prompt.
package scan

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// testDirNames are directory names that signal a test suite on their own.
var testDirNames = map[string]bool{
	"tests":     true,
	"test":      true,
	"__tests__": true,
}

var errFound = errors.New("found")

// HasTests reports whether the tree under dir contains conventional test
// naming: a directory literally named tests, test, or __tests__ at any
// depth, or any filename containing the substring "test" or "spec"
// (case-sensitive). The walk stops at the first match.
//
// The walk is unfiltered: it descends into dependency directories such as
// node_modules, and a test file inside vendored code counts. The sampler's
// ignore set does not apply here.
func HasTests(dir string) bool {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == dir {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if testDirNames[name] {
				return errFound
			}
			return nil
		}
		if strings.Contains(name, "test") || strings.Contains(name, "spec") {
			return errFound
		}
		return nil
	})
	return errors.Is(err, errFound)
}
