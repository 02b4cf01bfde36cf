package project

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/mod/modfile"
)

// Facts are supplementary observations about a repository that enrich the
// summarization prompt. They never influence toolchain selection; Classify
// remains the single source of truth for that.
type Facts struct {
	// Manifests lists the well-known manifest files present at the root.
	Manifests []string

	// GoModule is the module path from go.mod, when one parses.
	GoModule string

	// ReadmeTitle is the first level-1 heading of README.md.
	ReadmeTitle string

	// ReadmeSections lists the level-2 headings of README.md, in order.
	ReadmeSections []string
}

// knownManifests are the root-level marker files worth reporting to the
// model. Order here is the order they appear in the prompt.
var knownManifests = []string{
	"package.json",
	"requirements.txt",
	"pyproject.toml",
	"go.mod",
	"Cargo.toml",
	"pom.xml",
	"build.gradle",
	"Makefile",
	"Dockerfile",
}

// Gather collects Facts from a repository checkout. Every sub-step is best
// effort: a manifest that fails to parse or a README that fails to read just
// leaves its field empty.
func Gather(dir string) Facts {
	var f Facts

	for _, name := range knownManifests {
		if fileExists(filepath.Join(dir, name)) {
			f.Manifests = append(f.Manifests, name)
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		mf, err := modfile.ParseLax("go.mod", data, nil)
		if err == nil && mf.Module != nil {
			f.GoModule = mf.Module.Mod.Path
		} else {
			slog.Debug("go.mod present but unparseable", "dir", dir, "err", err)
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "README.md")); err == nil {
		f.ReadmeTitle, f.ReadmeSections = readmeOutline(data)
	}

	return f
}

// readmeOutline extracts the document title and section headings from
// markdown source using the goldmark AST.
func readmeOutline(source []byte) (title string, sections []string) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := headingText(heading, source)
		switch {
		case heading.Level == 1 && title == "":
			title = txt
		case heading.Level == 2:
			sections = append(sections, txt)
		}
		return ast.WalkSkipChildren, nil
	})

	return title, sections
}

func headingText(heading *ast.Heading, source []byte) string {
	var out []byte
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			out = append(out, t.Value(source)...)
		}
	}
	return string(out)
}
