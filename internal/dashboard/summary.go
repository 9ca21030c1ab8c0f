// Package dashboard aggregates employee rows into the figures the dashboard
// page draws: headline metrics, a salary histogram and a department breakdown.
package dashboard

import (
	"sort"

	"employee-dashboard/internal/store"
)

const DefaultBins = 20

type Summary struct {
	TotalEmployees  int               `json:"total_employees"`
	AverageSalary   float64           `json:"average_salary"`
	DepartmentCount int               `json:"department_count"`
	ByDepartment    []DepartmentCount `json:"by_department"`
	SalaryHistogram []SalaryBin       `json:"salary_histogram"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Employees  int    `json:"employees"`
}

// SalaryBin covers [Low, High); the last bin also includes High.
type SalaryBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Summarize computes the dashboard figures. An empty input yields zero
// metrics and empty series.
func Summarize(employees []store.EmployeeDTO, bins int) Summary {
	summary := Summary{
		TotalEmployees:  len(employees),
		ByDepartment:    []DepartmentCount{},
		SalaryHistogram: []SalaryBin{},
	}
	if len(employees) == 0 {
		return summary
	}

	var total float64
	perDepartment := make(map[string]int)
	for _, employee := range employees {
		total += employee.Salary
		perDepartment[employee.Department]++
	}
	summary.AverageSalary = total / float64(len(employees))
	summary.DepartmentCount = len(perDepartment)

	for department, count := range perDepartment {
		summary.ByDepartment = append(summary.ByDepartment, DepartmentCount{Department: department, Employees: count})
	}
	sort.Slice(summary.ByDepartment, func(i, j int) bool {
		a, b := summary.ByDepartment[i], summary.ByDepartment[j]
		if a.Employees != b.Employees {
			return a.Employees > b.Employees
		}
		return a.Department < b.Department
	})

	summary.SalaryHistogram = histogram(employees, bins)
	return summary
}

func histogram(employees []store.EmployeeDTO, bins int) []SalaryBin {
	if bins < 1 {
		bins = DefaultBins
	}

	low, high := employees[0].Salary, employees[0].Salary
	for _, employee := range employees[1:] {
		low = min(low, employee.Salary)
		high = max(high, employee.Salary)
	}

	if low == high {
		return []SalaryBin{{Low: low, High: high, Count: len(employees)}}
	}

	width := (high - low) / float64(bins)
	result := make([]SalaryBin, bins)
	for i := range result {
		result[i].Low = low + float64(i)*width
		result[i].High = low + float64(i+1)*width
	}
	result[bins-1].High = high

	for _, employee := range employees {
		idx := int((employee.Salary - low) / width)
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}
