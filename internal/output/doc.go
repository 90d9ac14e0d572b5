// Package output renders release notes as bullet lists for changelogs.
//
// Three formats are supported:
//   - github: GitHub-flavoured list with escaped brackets, dash-underlined headings
//   - rst:    reStructuredText anonymous hyperlinks, dash-underlined headings
//   - md:     Markdown list under "### " headings
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*release.Notes]. [WriteNotes] is a
// convenience helper that handles destination selection.
package output
