package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"

	"github.com/synapsetools/synrel/internal/release"
)

// Summaries are trimmed; Jira keeps whatever whitespace was pasted in.
var (
	rstLine    = lineTemplate("rst", "-  [`{{.Key}} <{{.URL}}>`__] -\n   {{.Summary | trim}}")
	githubLine = lineTemplate("github", `-  \[[{{.Key}}]({{.URL}})\] - {{.Summary | trim}}`)
)

func lineTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text))
}

// RSTWriter outputs reStructuredText suitable for Sphinx release notes.
type RSTWriter struct{}

func (r *RSTWriter) Write(w io.Writer, notes *release.Notes) error {
	return writeGroups(w, notes, rstLine, underline)
}

// GitHubWriter outputs a list suitable for a GitHub release body.
type GitHubWriter struct{}

func (g *GitHubWriter) Write(w io.Writer, notes *release.Notes) error {
	return writeGroups(w, notes, githubLine, underline)
}

// MarkdownWriter outputs a list under third-level Markdown headings.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, notes *release.Notes) error {
	return writeGroups(w, notes, githubLine, hashPrefix)
}

// Heading returns the section title for an issue type.
func Heading(issueType string) string {
	switch issueType {
	case "Bug":
		return "Bug Fixes"
	case "Story":
		return "Stories"
	default:
		return issueType + "s"
	}
}

type headingStyle func(ew *errWriter, title string)

func underline(ew *errWriter, title string) {
	ew.println(title)
	ew.println(strings.Repeat("-", utf8.RuneCountInString(title)))
}

func hashPrefix(ew *errWriter, title string) {
	ew.println("### " + title)
}

type lineData struct {
	Key     string
	URL     string
	Summary string
}

func writeGroups(w io.Writer, notes *release.Notes, line *template.Template, heading headingStyle) error {
	ew := &errWriter{w: w}
	for _, g := range notes.Groups {
		heading(ew, Heading(g.Type))
		for _, issue := range g.Issues {
			ew.execute(line, lineData{
				Key:     issue.Key,
				URL:     BrowseURL(notes.BaseURL, issue.Key),
				Summary: issue.Summary,
			})
			ew.println("")
		}
		ew.println("")
	}
	return ew.err
}

// BrowseURL derives the human-facing page for an issue key.
func BrowseURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/browse/" + key
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func (ew *errWriter) execute(t *template.Template, data any) {
	if ew.err != nil {
		return
	}
	ew.err = t.Execute(ew.w, data)
}
