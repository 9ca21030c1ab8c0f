package store

import "context"

type CreateEmployeeInput struct {
	Name       string
	Position   string
	Email      string
	Salary     float64
	Department string
}

// UpdateEmployeeInput replaces every business field of an existing employee.
type UpdateEmployeeInput struct {
	Name       string
	Position   string
	Email      string
	Salary     float64
	Department string
}

type EmployeeDTO struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Position   string  `json:"position"`
	Email      string  `json:"email"`
	Salary     float64 `json:"salary"`
	Department string  `json:"department"`
}

type Manager interface {
	ListAll(ctx context.Context) ([]EmployeeDTO, error)
	Get(ctx context.Context, employeeID uint) (EmployeeDTO, error)
	Create(ctx context.Context, input CreateEmployeeInput) (EmployeeDTO, error)
	Update(ctx context.Context, employeeID uint, input UpdateEmployeeInput) error
	Delete(ctx context.Context, employeeID uint) error
}
