package driftcheck

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DocSummary describes one generated markdown document.
type DocSummary struct {
	Path     string
	Title    string
	Headings []string
}

// summarizeDocs walks the scoped paths and summarizes every markdown
// file found. Summaries are best-effort: unreadable files are skipped.
func summarizeDocs(repoRoot string, scope []string) []DocSummary {
	roots := scope
	if len(roots) == 0 {
		roots = []string{"."}
	}

	var summaries []DocSummary
	for _, root := range roots {
		base := filepath.Join(repoRoot, root)
		_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
				return nil //nolint:nilerr // best-effort walk
			}
			src, rerr := os.ReadFile(path)
			if rerr != nil {
				return nil
			}
			rel, rerr := filepath.Rel(repoRoot, path)
			if rerr != nil {
				rel = path
			}
			summaries = append(summaries, summarizeMarkdown(rel, src))
			return nil
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Path < summaries[j].Path })
	return summaries
}

// summarizeMarkdown extracts the title (first level-1 heading) and all
// headings from a markdown document.
func summarizeMarkdown(path string, src []byte) DocSummary {
	summary := DocSummary{Path: path}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := headingText(heading, src)
		if txt == "" {
			return ast.WalkContinue, nil
		}
		summary.Headings = append(summary.Headings, txt)
		if heading.Level == 1 && summary.Title == "" {
			summary.Title = txt
		}
		return ast.WalkSkipChildren, nil
	})
	return summary
}

func headingText(heading *ast.Heading, src []byte) string {
	var buf bytes.Buffer
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
		}
	}
	return strings.TrimSpace(buf.String())
}
