package output

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/synapsetools/synrel/internal/release"
)

// Format selects the line template and heading style.
type Format string

const (
	FormatGitHub   Format = "github"
	FormatRST      Format = "rst"
	FormatMarkdown Format = "md"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatGitHub, FormatRST, FormatMarkdown}

// ErrUnsupportedFormat is returned for format names outside Formats.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.WithHint(
		errors.Wrapf(ErrUnsupportedFormat, "%q", s),
		"choose one of: github, rst, md",
	)
}

// Writer writes release notes in a specific format.
type Writer interface {
	Write(w io.Writer, notes *release.Notes) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatRST:
		return &RSTWriter{}, nil
	case FormatMarkdown:
		return &MarkdownWriter{}, nil
	default:
		return &GitHubWriter{}, nil
	}
}

// WriteNotes writes the notes to outPath, or to w when outPath is empty.
func WriteNotes(w io.Writer, notes *release.Notes, format, outPath string) (err error) {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writer.Write(w, notes)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output file")
		}
	}()
	return writer.Write(f, notes)
}
