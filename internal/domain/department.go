package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDepartmentNotFound    = errors.New("department not found")
	ErrSubDepartmentNotFound = errors.New("sub-department not found")
)

type Department struct {
	ID             int64
	Name           string
	SubDepartments []*SubDepartment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SubDepartment struct {
	ID           int64
	DepartmentID int64
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotFoundError reports a missing entity by ID. It matches the entity's
// sentinel via errors.Is and renders the caller-facing message.
type NotFoundError struct {
	Entity string
	ID     int64
	kind   error
}

func DepartmentNotFound(id int64) *NotFoundError {
	return &NotFoundError{Entity: "Department", ID: id, kind: ErrDepartmentNotFound}
}

func SubDepartmentNotFound(id int64) *NotFoundError {
	return &NotFoundError{Entity: "Sub-department", ID: id, kind: ErrSubDepartmentNotFound}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == e.kind }
