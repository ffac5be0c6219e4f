package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/example/bpbot/internal/ports/secondary"
)

var csvHeaders = []string{"id", "identity_id", "systolic", "diastolic", "pulse", "comment", "recorded_at"}

// CSV renders the full measurement table. Timestamps are RFC 3339 so the
// dump can be re-imported without guessing a layout.
func (r *Renderer) CSV(measurements []*secondary.MeasurementRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, m := range measurements {
		comment := ""
		if m.Comment != nil {
			comment = *m.Comment
		}
		record := []string{
			strconv.FormatInt(m.ID, 10),
			strconv.FormatInt(m.IdentityID, 10),
			strconv.Itoa(m.Systolic),
			strconv.Itoa(m.Diastolic),
			strconv.Itoa(m.Pulse),
			comment,
			m.RecordedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
