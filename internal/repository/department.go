package repository

import (
	"context"

	"github.com/ErlanBelekov/departments-api/internal/domain"
)

type ListDepartmentsInput struct {
	Offset int
	Limit  int
}

type DepartmentRepository interface {
	// Create inserts the department and its sub-departments in one transaction.
	Create(ctx context.Context, name string, subDepartmentNames []string) (*domain.Department, error)
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	// List returns one page ordered by id ASC plus the total row count.
	List(ctx context.Context, input ListDepartmentsInput) ([]*domain.Department, int, error)
	Rename(ctx context.Context, id int64, name string) (*domain.Department, error)
	// Delete removes the department's sub-departments and then the department
	// in one transaction.
	Delete(ctx context.Context, id int64) error
}

type SubDepartmentRepository interface {
	Create(ctx context.Context, departmentID int64, name string) (*domain.SubDepartment, error)
	GetByID(ctx context.Context, id int64) (*domain.SubDepartment, error)
	Rename(ctx context.Context, id int64, name string) (*domain.SubDepartment, error)
	Delete(ctx context.Context, id int64) error
}
