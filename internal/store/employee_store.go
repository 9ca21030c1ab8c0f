package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const maxTextLength = 100

type EmployeeStore struct {
	db *gorm.DB
}

func NewEmployeeStore(db *gorm.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

// Initialize creates the employees table when it is absent and leaves an
// existing table and its rows untouched. Safe to call repeatedly.
func (s *EmployeeStore) Initialize(ctx context.Context) error {
	migrator := s.db.WithContext(ctx).Migrator()
	if migrator.HasTable(&models.Employee{}) {
		return nil
	}
	if err := migrator.CreateTable(&models.Employee{}); err != nil {
		return apperror.Wrap(apperror.CodeUnavailable, "create employees table", err)
	}
	return nil
}

func (s *EmployeeStore) ListAll(ctx context.Context) ([]EmployeeDTO, error) {
	var employees []models.Employee
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	result := make([]EmployeeDTO, 0, len(employees))
	for _, employee := range employees {
		result = append(result, employeeToDTO(employee))
	}
	return result, nil
}

func (s *EmployeeStore) Get(ctx context.Context, employeeID uint) (EmployeeDTO, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeDTO{}, apperror.New(apperror.CodeNotFound, "employee not found")
		}
		return EmployeeDTO{}, fmt.Errorf("load employee: %w", err)
	}
	return employeeToDTO(employee), nil
}

func (s *EmployeeStore) Create(ctx context.Context, input CreateEmployeeInput) (EmployeeDTO, error) {
	employee, err := normalizeEmployee(input.Name, input.Position, input.Email, input.Salary, input.Department)
	if err != nil {
		return EmployeeDTO{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&employee).Error; err != nil {
			return mapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return EmployeeDTO{}, err
	}

	return employeeToDTO(employee), nil
}

// Update overwrites all business fields of the employee. An unknown id is a
// no-op and returns nil.
func (s *EmployeeStore) Update(ctx context.Context, employeeID uint, input UpdateEmployeeInput) error {
	fields, err := normalizeEmployee(input.Name, input.Position, input.Email, input.Salary, input.Department)
	if err != nil {
		return err
	}

	// A plain UPDATE touches zero rows when the id is gone, so a row deleted
	// in between is never written back.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Employee{}).Where("id = ?", employeeID).Updates(map[string]interface{}{
			"name":       fields.Name,
			"position":   fields.Position,
			"email":      fields.Email,
			"salary":     fields.Salary,
			"department": fields.Department,
		}).Error
		if err != nil {
			return mapDatabaseError(err)
		}
		return nil
	})
}

// Delete hard-deletes the employee. An unknown id is a no-op and returns nil.
func (s *EmployeeStore) Delete(ctx context.Context, employeeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.First(&employee, employeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("load employee: %w", err)
		}

		if err := tx.Delete(&employee).Error; err != nil {
			return mapDatabaseError(err)
		}
		return nil
	})
}

func normalizeEmployee(name, position, email string, salary float64, department string) (models.Employee, error) {
	var err error
	employee := models.Employee{Salary: salary}

	if employee.Name, err = normalizeRequiredString(name, "name"); err != nil {
		return models.Employee{}, err
	}
	if employee.Position, err = normalizeRequiredString(position, "position"); err != nil {
		return models.Employee{}, err
	}
	if employee.Email, err = normalizeRequiredString(email, "email"); err != nil {
		return models.Employee{}, err
	}
	if employee.Department, err = normalizeRequiredString(department, "department"); err != nil {
		return models.Employee{}, err
	}
	if math.IsNaN(salary) || math.IsInf(salary, 0) {
		return models.Employee{}, apperror.New(apperror.CodeValidation, "salary must be a finite number")
	}

	return employee, nil
}

func employeeToDTO(employee models.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         employee.ID,
		Name:       employee.Name,
		Position:   employee.Position,
		Email:      employee.Email,
		Salary:     employee.Salary,
		Department: employee.Department,
	}
}

func normalizeRequiredString(raw string, field string) (string, error) {
	value := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(value)
	if length < 1 || length > maxTextLength {
		return "", apperror.New(apperror.CodeValidation, fmt.Sprintf("%s length must be in range 1..%d", field, maxTextLength))
	}
	return value, nil
}

func mapDatabaseError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return apperror.Wrap(apperror.CodeConflict, "employee with the same email already exists", err)
		}
		if pgErr.Code == "23502" {
			return apperror.Wrap(apperror.CodeValidation, "required employee field is missing", err)
		}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperror.Wrap(apperror.CodeConflict, "employee with the same email already exists", err)
		case sqlite3.ErrConstraintNotNull:
			return apperror.Wrap(apperror.CodeValidation, "required employee field is missing", err)
		}
	}

	return err
}
