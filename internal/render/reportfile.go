package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

// ReportWriter saves the report as indented JSON.
// It implements pipeline.Loader.
type ReportWriter struct {
	dir    string
	logger *slog.Logger
}

// NewReportWriter creates a ReportWriter that saves into dir.
func NewReportWriter(dir string, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{dir: dir, logger: logger}
}

func (w *ReportWriter) Name() string { return "report" }

func (w *ReportWriter) Load(ctx context.Context, report *domain.Report) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := prepareDir(w.dir); err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outPath(w.dir, FileReport), append(data, '\n'), 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", FileReport, err)
	}
	w.logger.Debug("report saved", "file", FileReport, "bytes", len(data))
	return 1, nil
}

// ReadReport loads a report written by ReportWriter.
func ReadReport(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
