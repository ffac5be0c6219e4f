package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/bpbot/internal/core/effects"
	"github.com/example/bpbot/internal/ports/secondary"
)

// HistoryService answers the read-only menu entries.
type HistoryService struct {
	measurements secondary.MeasurementRepository
	renderer     secondary.ReportRenderer
	recentLimit  int
	now          func() time.Time
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(measurements secondary.MeasurementRepository, renderer secondary.ReportRenderer, recentLimit int) *HistoryService {
	return &HistoryService{
		measurements: measurements,
		renderer:     renderer,
		recentLimit:  recentLimit,
		now:          time.Now,
	}
}

// Recent lists the latest readings, newest first.
func (s *HistoryService) Recent(ctx context.Context, identityID int64) ([]effects.Effect, error) {
	records, err := s.measurements.Recent(ctx, identityID, s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent readings: %w", err)
	}
	if len(records) == 0 {
		return []effects.Effect{text(identityID, msgNoReadings, mainMenu())}, nil
	}
	return []effects.Effect{text(identityID, formatRecent(records), mainMenu())}, nil
}

// Chart renders every reading as a time series image.
func (s *HistoryService) Chart(ctx context.Context, identityID int64) ([]effects.Effect, error) {
	records, err := s.measurements.All(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	if len(records) == 0 {
		return []effects.Effect{text(identityID, msgNoReadings, mainMenu())}, nil
	}

	image, err := s.renderer.Chart(records)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return []effects.Effect{effects.SendPhotoEffect{ChatID: identityID, Image: image, Caption: msgChartCaption}}, nil
}

// Export renders every reading as a spreadsheet attachment.
func (s *HistoryService) Export(ctx context.Context, identityID int64) ([]effects.Effect, error) {
	records, err := s.measurements.All(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	if len(records) == 0 {
		return []effects.Effect{text(identityID, msgNoReadings, mainMenu())}, nil
	}

	content, err := s.renderer.Spreadsheet(records)
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	return []effects.Effect{effects.SendDocumentEffect{
		ChatID:   identityID,
		Content:  content,
		Filename: ExportFilename(s.now()),
		Caption:  msgExportCaption,
	}}, nil
}

// ExportFilename names a spreadsheet export made at t.
func ExportFilename(t time.Time) string {
	return "pressure_data_" + t.Format("02_01_2006_15_04") + ".xlsx"
}
