package export

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/surplus/internal/model"
)

// MarkdownWriter outputs devices as a Markdown table.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs a heading, the device count and the device table.
func (w *MarkdownWriter) Write(devices []model.Device) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Surplus Devices")
	md.PlainText("")
	md.PlainText("Total devices: " + strconv.Itoa(len(devices)))
	md.PlainText("")

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, record(d))
	}
	md.Table(markdown.TableSet{
		Header: Header,
		Rows:   rows,
	})

	return md.Build()
}
