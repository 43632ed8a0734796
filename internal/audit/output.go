package audit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/CoKeFish/ExtractDataRolita/internal/fileutils"
	"github.com/ubuntu/decorate"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned when the summary is requested in an unsupported format.
var ErrUnknownFormat = errors.New("unknown summary format")

// Formats lists the supported summary formats.
var Formats = []string{"text", "yaml", "toml"}

var formatExt = map[string]string{
	"text": ".txt",
	"yaml": ".yaml",
	"toml": ".toml",
}

// WriteText writes the human readable report of s to w.
func (s Summary) WriteText(w io.Writer) error {
	var b strings.Builder

	for _, f := range s.Folders {
		fmt.Fprintf(&b, "Folder: %s\n", f.Name)
		fmt.Fprintf(&b, "  Start: %s\n", f.Start)
		fmt.Fprintf(&b, "  End: %s\n", f.End)
		fmt.Fprintf(&b, "  Total hours: %.2f\n", f.Hours)
		fmt.Fprintf(&b, "  Status: %s\n\n", f.Status)
	}

	b.WriteString("Problems:\n")
	fmt.Fprintf(&b, "  Folders with mismatched or missing files: %d\n", len(s.Problems))
	for _, p := range s.Problems {
		fmt.Fprintf(&b, "  - %s: %s\n", p.Folder, p.Problem)
	}

	b.WriteString("\nHours per bus:\n")
	for _, h := range s.Hours {
		fmt.Fprintf(&b, "  - Bus %s: %.2f hours\n", h.Bus, h.Hours)
	}

	b.WriteString("\nDays of the week per week and bus:\n")
	for _, bw := range s.Weeks {
		fmt.Fprintf(&b, "Bus: %s\n", bw.Bus)
		for _, wk := range bw.Weeks {
			fmt.Fprintf(&b, "  - %s: %s\n", wk.Key(), strings.Join(wk.Days, ", "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Encode writes s to w in format, one of Formats.
func (s Summary) Encode(w io.Writer, format string) error {
	switch format {
	case "text":
		return s.WriteText(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// FileName returns the name of the summary file written for format.
func FileName(format string) (string, error) {
	ext, ok := formatExt[format]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return constants.AuditSummaryBaseName + ext, nil
}

// Write atomically writes s in format to root, returning the path of the summary file.
// Any previous summary in the same format is replaced.
func Write(root string, s Summary, format string) (path string, err error) {
	defer decorate.OnError(&err, "could not write audit summary")

	name, err := FileName(format)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf, format); err != nil {
		return "", err
	}

	path = filepath.Join(root, name)
	if err := fileutils.AtomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
