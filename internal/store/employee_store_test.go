package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/testutil"
)

func newTestStore(t *testing.T) *EmployeeStore {
	t.Helper()

	s := NewEmployeeStore(testutil.OpenTestDB(t))
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func aliceInput() CreateEmployeeInput {
	return CreateEmployeeInput{
		Name:       "Alice",
		Position:   "Engineer",
		Email:      "alice@x.com",
		Salary:     90000,
		Department: "Eng",
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, aliceInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 1 {
		t.Fatalf("expected existing row to survive initialize, got %d rows", len(employees))
	}
}

func TestInitializeKeepsLegacyTable(t *testing.T) {
	database := testutil.OpenTestDB(t)
	ctx := context.Background()

	legacyDDL := `CREATE TABLE employees (
		id INTEGER NOT NULL,
		name VARCHAR(100) NOT NULL,
		position VARCHAR(100) NOT NULL,
		email VARCHAR(100) NOT NULL,
		salary FLOAT NOT NULL,
		department VARCHAR(100) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE (email)
	)`
	if err := database.Exec(legacyDDL).Error; err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	err := database.Exec("INSERT INTO employees (id, name, position, email, salary, department) VALUES (?, ?, ?, ?, ?, ?)",
		7, "Alice", "Engineer", "alice@x.com", 90000.0, "Eng").Error
	if err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	s := NewEmployeeStore(database)
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize over legacy table: %v", err)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := EmployeeDTO{ID: 7, Name: "Alice", Position: "Engineer", Email: "alice@x.com", Salary: 90000, Department: "Eng"}
	if len(employees) != 1 || employees[0] != want {
		t.Fatalf("expected legacy row %+v, got %+v", want, employees)
	}

	bob, err := s.Create(ctx, CreateEmployeeInput{Name: "Bob", Position: "Manager", Email: "bob@x.com", Salary: 110000, Department: "Ops"})
	if err != nil {
		t.Fatalf("create on legacy table: %v", err)
	}
	if bob.ID <= 7 {
		t.Fatalf("expected id after 7, got %d", bob.ID)
	}

	_, err = s.Create(ctx, aliceInput())
	if code := apperror.GetCode(err); code != apperror.CodeConflict {
		t.Fatalf("expected conflict from legacy unique email, got %v (%q)", err, code)
	}
}

func TestCreateThenList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateEmployeeInput{
		Name:       "  Alice ",
		Position:   "Engineer",
		Email:      "alice@x.com",
		Salary:     90000,
		Department: "Eng",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected generated id, got %+v", created)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 1 {
		t.Fatalf("expected 1 employee, got %d", len(employees))
	}

	want := EmployeeDTO{ID: created.ID, Name: "Alice", Position: "Engineer", Email: "alice@x.com", Salary: 90000, Department: "Eng"}
	if employees[0] != want {
		t.Fatalf("expected %+v, got %+v", want, employees[0])
	}
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := map[string]func(in *CreateEmployeeInput){
		"missing name":       func(in *CreateEmployeeInput) { in.Name = "" },
		"blank position":     func(in *CreateEmployeeInput) { in.Position = "   " },
		"missing email":      func(in *CreateEmployeeInput) { in.Email = "" },
		"missing department": func(in *CreateEmployeeInput) { in.Department = "" },
		"nan salary":         func(in *CreateEmployeeInput) { in.Salary = math.NaN() },
		"infinite salary":    func(in *CreateEmployeeInput) { in.Salary = math.Inf(1) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := aliceInput()
			mutate(&input)

			_, err := s.Create(ctx, input)
			if code := apperror.GetCode(err); code != apperror.CodeValidation {
				t.Fatalf("expected validation error, got %v (%q)", err, code)
			}
		})
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 0 {
		t.Fatalf("expected no rows after rejected creates, got %d", len(employees))
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, aliceInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	duplicate := aliceInput()
	duplicate.Name = "Another Alice"
	_, err := s.Create(ctx, duplicate)
	if code := apperror.GetCode(err); code != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %v (%q)", err, code)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 1 || employees[0].Name != "Alice" {
		t.Fatalf("expected table unchanged, got %+v", employees)
	}
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected fresh id greater than %d, got %d", first.ID, second.ID)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	update := UpdateEmployeeInput{
		Name:       "Alice Smith",
		Position:   "Staff Engineer",
		Email:      "alice.smith@x.com",
		Salary:     120000,
		Department: "Platform",
	}
	if err := s.Update(ctx, created.ID, update); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := EmployeeDTO{ID: created.ID, Name: "Alice Smith", Position: "Staff Engineer", Email: "alice.smith@x.com", Salary: 120000, Department: "Platform"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestUpdateDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, aliceInput()); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := s.Create(ctx, CreateEmployeeInput{Name: "Bob", Position: "Manager", Email: "bob@x.com", Salary: 110000, Department: "Ops"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	err = s.Update(ctx, bob.ID, UpdateEmployeeInput{Name: "Bob", Position: "Manager", Email: "alice@x.com", Salary: 110000, Department: "Ops"})
	if code := apperror.GetCode(err); code != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %v (%q)", err, code)
	}

	got, err := s.Get(ctx, bob.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "bob@x.com" {
		t.Fatalf("expected rolled back update, got %+v", got)
	}
}

func TestUpdateAfterConcurrentDeleteIsNoOp(t *testing.T) {
	database := testutil.OpenTestDB(t)
	ctx := context.Background()

	s := NewEmployeeStore(database)
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	created, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Remove the row right before the UPDATE statement runs, as a second
	// writer committing between the caller's lookup and its write would.
	deleted := false
	err = database.Callback().Update().Before("gorm:update").Register("test:delete_row", func(tx *gorm.DB) {
		if deleted {
			return
		}
		deleted = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM employees WHERE id = ?", created.ID).Error; err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	update := UpdateEmployeeInput{Name: "Ghost", Position: "Engineer", Email: "ghost@x.com", Salary: 1, Department: "Eng"}
	if err := s.Update(ctx, created.ID, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to run before the update")
	}

	_, err = s.Get(ctx, created.ID)
	if code := apperror.GetCode(err); code != apperror.CodeNotFound {
		t.Fatalf("expected deleted id to stay gone, got %v (%q)", err, code)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 0 {
		t.Fatalf("expected empty table, got %+v", employees)
	}
}

func TestMissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missing := created.ID + 100
	if err := s.Update(ctx, missing, UpdateEmployeeInput{Name: "X", Position: "Y", Email: "x@y.com", Salary: 1, Department: "Z"}); err != nil {
		t.Fatalf("update missing id: %v", err)
	}
	if err := s.Delete(ctx, missing); err != nil {
		t.Fatalf("delete missing id: %v", err)
	}

	employees, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 1 || employees[0] != created {
		t.Fatalf("expected table unchanged, got %+v", employees)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, aliceInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = s.Get(ctx, created.ID)
	if code := apperror.GetCode(err); code != apperror.CodeNotFound {
		t.Fatalf("expected not found, got %v (%q)", err, code)
	}
}

func TestMapDatabaseError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperror.Code
	}{
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: apperror.CodeConflict},
		{name: "postgres not null", err: &pgconn.PgError{Code: "23502"}, want: apperror.CodeValidation},
		{name: "sqlite unique", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, want: apperror.CodeConflict},
		{name: "sqlite primary key", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, want: apperror.CodeConflict},
		{name: "sqlite not null", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, want: apperror.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := mapDatabaseError(fmt.Errorf("insert: %w", tc.err))
			if code := apperror.GetCode(err); code != tc.want {
				t.Fatalf("expected %q, got %v (%q)", tc.want, err, code)
			}
		})
	}

	other := errors.New("disk I/O error")
	if err := mapDatabaseError(other); err != other {
		t.Fatalf("expected unrelated error to pass through, got %v", err)
	}
}
