package app

import (
	"context"
	"log/slog"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/importer"
)

type ImportRunner interface {
	Run(ctx context.Context) (importer.Result, error)
}

// Startup owns the process-local state of the boot sequence. ImportDone is
// set after the first import attempt, successful or not.
type Startup struct {
	Importer   ImportRunner
	ImportDone bool
	Logger     *slog.Logger
}

// ImportOnce runs the importer unless it already ran in this process. Import
// failures are logged and swallowed so the process keeps serving the current table.
func (s *Startup) ImportOnce(ctx context.Context) {
	if s.ImportDone || s.Importer == nil {
		return
	}
	s.ImportDone = true

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result, err := s.Importer.Run(ctx)
	if err != nil {
		logger.Error("startup import failed, continuing without imported data",
			"import_id", result.RunID,
			"error", apperror.Cause(err),
		)
		return
	}

	logger.Info("startup import finished",
		"import_id", result.RunID,
		"status", result.Status,
		"rows", result.Rows,
	)
}
