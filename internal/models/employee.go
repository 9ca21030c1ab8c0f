package models

// RequiredColumns are the business fields every employee row must carry, in
// the column order of the employees table.
var RequiredColumns = []string{"name", "position", "email", "salary", "department"}

// Employee is the persisted shape of the employees table. Column widths and the
// unique email index match databases created by earlier versions of the dashboard.
type Employee struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	Name       string  `gorm:"type:varchar(100);not null"`
	Position   string  `gorm:"type:varchar(100);not null"`
	Email      string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Salary     float64 `gorm:"not null"`
	Department string  `gorm:"type:varchar(100);not null"`
}

func (Employee) TableName() string {
	return "employees"
}
