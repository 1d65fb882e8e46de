package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/surplus/internal/model"
)

// JSONWriter outputs devices as one JSON document.
//
// Design decision: created_at is the stored column text, the same value the
// CSV column shows, rather than time.Time's RFC 3339 encoding. Every export
// format therefore shows identical timestamps.
type JSONWriter struct {
	output io.Writer

	// indentString enables pretty-printed output when non-empty.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type jsonDocument struct {
	Total   int          `json:"total"`
	Devices []jsonDevice `json:"devices"`
}

type jsonDevice struct {
	ID           int64  `json:"id"`
	SerialNumber string `json:"serial_number"`
	TagNumber    string `json:"tag_number"`
	DeviceType   string `json:"device_type"`
	CreatedAt    string `json:"created_at"`
}

// Write outputs the devices in the order given.
func (w *JSONWriter) Write(devices []model.Device) error {
	doc := jsonDocument{
		Total:   len(devices),
		Devices: make([]jsonDevice, 0, len(devices)),
	}
	for _, d := range devices {
		doc.Devices = append(doc.Devices, jsonDevice{
			ID:           d.ID,
			SerialNumber: d.SerialNumber,
			TagNumber:    d.TagNumber,
			DeviceType:   d.DeviceType,
			CreatedAt:    d.CreatedAtText(),
		})
	}

	enc := json.NewEncoder(w.output)
	if w.indentString != "" {
		enc.SetIndent("", w.indentString)
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	return nil
}
