// Package report renders measurement history into files: a PNG chart, an
// XLSX workbook and a CSV dump. Nothing here touches storage.
package report

import (
	"errors"

	"github.com/example/bpbot/internal/ports/secondary"
)

// DateLayout is how reading timestamps appear in every report.
const DateLayout = "02.01.2006 15:04"

// ErrNoData is returned when asked to render an empty history.
var ErrNoData = errors.New("no measurements to render")

// Renderer implements secondary.ReportRenderer.
type Renderer struct {
	ChartWidth  int
	ChartHeight int
}

// NewRenderer creates a renderer with the default chart size.
func NewRenderer() *Renderer {
	return &Renderer{ChartWidth: 1000, ChartHeight: 500}
}

var _ secondary.ReportRenderer = (*Renderer)(nil)
