package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nao1215/surplus/internal/model"
)

// CSVWriter outputs devices as CSV.
//
// Design decision: We use standard encoding/csv because quoting rules are
// the only hard part of CSV and the standard writer gets them right. Lines end
// in CRLF, matching the dialect spreadsheets expect.
type CSVWriter struct {
	output io.Writer
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{output: output}
}

// Write outputs the header followed by one record per device.
func (w *CSVWriter) Write(devices []model.Device) error {
	cw := csv.NewWriter(w.output)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, d := range devices {
		if err := cw.Write(record(d)); err != nil {
			return fmt.Errorf("failed to write csv record %d: %w", d.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
