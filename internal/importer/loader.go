// Package importer replaces the employees table with the contents of a CSV or
// XLSX file. A run is destructive: existing rows are dropped with the table.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/models"
)

const DefaultBatchSize = 500

type Status string

const (
	StatusImported              Status = "imported"
	StatusSkippedMissingFile    Status = "skipped_missing_file"
	StatusSkippedMissingColumns Status = "skipped_missing_columns"
)

type Result struct {
	RunID          string
	Path           string
	Status         Status
	Rows           int
	MissingColumns []string
}

// Loader holds no state between runs; calling Run twice replaces the table twice.
type Loader struct {
	db        *gorm.DB
	path      string
	batchSize int
	logger    *slog.Logger
}

func NewLoader(db *gorm.DB, path string, batchSize int, logger *slog.Logger) *Loader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:        db,
		path:      path,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run imports the source file. A missing file or a header lacking required
// columns is reported through Result with a nil error and leaves the table
// untouched. Malformed rows and insert failures return a CodeImport error.
func (l *Loader) Run(ctx context.Context) (Result, error) {
	result := Result{RunID: uuid.NewString(), Path: l.path}
	logger := l.logger.With("import_id", result.RunID, "path", l.path)

	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("import source not found, skipping")
			result.Status = StatusSkippedMissingFile
			return result, nil
		}
		return result, l.fail(logger, "stat import source", err)
	}

	source, err := readSource(l.path)
	if err != nil {
		return result, l.fail(logger, "read import source", err)
	}

	columns := headerIndex(source.header)
	for _, column := range models.RequiredColumns {
		if _, ok := columns[column]; !ok {
			result.MissingColumns = append(result.MissingColumns, column)
		}
	}
	if len(result.MissingColumns) > 0 {
		logger.Warn("import source is missing required columns, skipping", "missing", result.MissingColumns)
		result.Status = StatusSkippedMissingColumns
		return result, nil
	}

	employees, err := buildEmployees(source.rows, columns)
	if err != nil {
		return result, l.fail(logger, "convert import rows", err)
	}

	_, explicitIDs := columns["id"]
	if err := l.replaceTable(ctx, employees, explicitIDs); err != nil {
		return result, l.fail(logger, "replace employees table", err)
	}

	result.Status = StatusImported
	result.Rows = len(employees)
	logger.Info("import completed", "rows", result.Rows)
	return result, nil
}

func (l *Loader) replaceTable(ctx context.Context, employees []models.Employee, explicitIDs bool) error {
	database := l.db.WithContext(ctx)
	migrator := database.Migrator()

	if migrator.HasTable(&models.Employee{}) {
		if err := migrator.DropTable(&models.Employee{}); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	if err := migrator.CreateTable(&models.Employee{}); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if len(employees) == 0 {
		return nil
	}
	if err := database.CreateInBatches(&employees, l.batchSize).Error; err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	if explicitIDs && database.Dialector.Name() == "postgres" {
		err := database.Exec("SELECT setval(pg_get_serial_sequence('employees', 'id'), (SELECT MAX(id) FROM employees))").Error
		if err != nil {
			return fmt.Errorf("advance id sequence: %w", err)
		}
	}

	return nil
}

func (l *Loader) fail(logger *slog.Logger, step string, err error) error {
	logger.Error("import failed", "step", step, "error", err)
	return apperror.Wrap(apperror.CodeImport, step, err)
}

func buildEmployees(rows [][]string, columns map[string]int) ([]models.Employee, error) {
	idColumn, withIDs := columns["id"]

	employees := make([]models.Employee, 0, len(rows))
	for i, row := range rows {
		// Line 1 is the header.
		line := i + 2

		rawSalary := cellValue(row, columns["salary"])
		salary, err := strconv.ParseFloat(rawSalary, 64)
		if err != nil || math.IsNaN(salary) || math.IsInf(salary, 0) {
			return nil, fmt.Errorf("line %d: salary %q is not a number", line, rawSalary)
		}

		employee := models.Employee{
			Name:       cellValue(row, columns["name"]),
			Position:   cellValue(row, columns["position"]),
			Email:      cellValue(row, columns["email"]),
			Salary:     salary,
			Department: cellValue(row, columns["department"]),
		}

		if withIDs {
			rawID := cellValue(row, idColumn)
			id, err := strconv.ParseUint(rawID, 10, 64)
			if err != nil || id == 0 {
				return nil, fmt.Errorf("line %d: id %q is not a positive integer", line, rawID)
			}
			employee.ID = uint(id)
		}

		employees = append(employees, employee)
	}

	return employees, nil
}
