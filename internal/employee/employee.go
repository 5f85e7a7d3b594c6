// Package employee defines the roster entity shared by every stage of an
// audit run.
package employee

import "fmt"

// Employee is one roster record. Its fields never change after parsing;
// relations to other employees are held by the registry, not here.
type Employee struct {
	ID        int
	FirstName string
	LastName  string
	Salary    float64
	// ManagerID is nil for the organizational root.
	ManagerID *int
}

// New builds an Employee. A nil managerID marks a root.
func New(id int, firstName, lastName string, salary float64, managerID *int) Employee {
	return Employee{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Salary:    salary,
		ManagerID: managerID,
	}
}

// FullName returns "First Last".
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// HasManagerID reports whether the record names a manager at all, resolved or not.
func (e Employee) HasManagerID() bool {
	return e.ManagerID != nil
}

func (e Employee) String() string {
	return fmt.Sprintf("Employee{id=%d, name=%q, salary=%g}", e.ID, e.FullName(), e.Salary)
}

// IntPtr is a small helper for building manager references in literals.
func IntPtr(v int) *int {
	return &v
}
