package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/surplus/internal/model"
)

// Format identifies an export format.
type Format string

const (
	// FormatCSV is comma-separated values with CRLF line endings.
	FormatCSV Format = "csv"

	// FormatMarkdown is a GitHub-flavored Markdown table.
	FormatMarkdown Format = "markdown"

	// FormatJSON is a single JSON document with a device array.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// Header is the fixed column header of every export.
var Header = []string{"ID", "Serial Number", "Tag Number", "Device Type", "Created At (UTC)"}

// Writer defines the interface for device export output.
type Writer interface {
	// Write outputs the devices in the order given.
	Write(devices []model.Device) error
}

// ParseFormat converts a user-supplied name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv", "":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (use 'csv', 'markdown' or 'json')", ErrUnknownFormat, name)
	}
}

// NewWriter returns the Writer for format, writing to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// FileName returns the download name for the format.
func (f Format) FileName() string {
	switch f {
	case FormatMarkdown:
		return "devices.md"
	case FormatJSON:
		return "devices.json"
	default:
		return "devices.csv"
	}
}

// record converts a device to its export columns.
func record(d model.Device) []string {
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.SerialNumber,
		d.TagNumber,
		d.DeviceType,
		d.CreatedAtText(),
	}
}
