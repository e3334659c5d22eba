package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/ErlanBelekov/departments-api/internal/repository"
	pkgerrors "github.com/pkg/errors"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type DepartmentUsecase struct {
	departments    repository.DepartmentRepository
	subDepartments repository.SubDepartmentRepository
	logger         *slog.Logger
}

func NewDepartmentUsecase(departments repository.DepartmentRepository, subDepartments repository.SubDepartmentRepository, logger *slog.Logger) *DepartmentUsecase {
	return &DepartmentUsecase{
		departments:    departments,
		subDepartments: subDepartments,
		logger:         logger.With("component", "department_usecase"),
	}
}

type CreateDepartmentInput struct {
	Name           string
	SubDepartments []string
}

type ListDepartmentsResult struct {
	Departments []*domain.Department
	Total       int
	Page        int
	Limit       int
}

func (u *DepartmentUsecase) CreateDepartment(ctx context.Context, input CreateDepartmentInput) (*domain.Department, error) {
	d, err := u.departments.Create(ctx, input.Name, input.SubDepartments)
	if err != nil {
		return nil, wrapStorage(err, "create department")
	}

	u.logger.InfoContext(ctx, "department created", "department_id", d.ID, "sub_departments", len(d.SubDepartments))
	return d, nil
}

// ListDepartments clamps page to >= 1 and resets limit outside 1..100 to 10.
func (u *DepartmentUsecase) ListDepartments(ctx context.Context, page, limit int) (*ListDepartmentsResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	departments, total, err := u.departments.List(ctx, repository.ListDepartmentsInput{
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, wrapStorage(err, "list departments")
	}

	return &ListDepartmentsResult{Departments: departments, Total: total, Page: page, Limit: limit}, nil
}

func (u *DepartmentUsecase) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	d, err := u.departments.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err, "get department")
	}
	return d, nil
}

func (u *DepartmentUsecase) RenameDepartment(ctx context.Context, id int64, name string) (*domain.Department, error) {
	d, err := u.departments.Rename(ctx, id, name)
	if err != nil {
		return nil, wrapStorage(err, "rename department")
	}

	u.logger.InfoContext(ctx, "department renamed", "department_id", id)
	return d, nil
}

// DeleteDepartment removes the department together with its sub-departments.
func (u *DepartmentUsecase) DeleteDepartment(ctx context.Context, id int64) error {
	if err := u.departments.Delete(ctx, id); err != nil {
		return wrapStorage(err, "delete department")
	}

	u.logger.InfoContext(ctx, "department deleted", "department_id", id)
	return nil
}

func (u *DepartmentUsecase) CreateSubDepartment(ctx context.Context, departmentID int64, name string) (*domain.SubDepartment, error) {
	s, err := u.subDepartments.Create(ctx, departmentID, name)
	if err != nil {
		return nil, wrapStorage(err, "create sub-department")
	}

	u.logger.InfoContext(ctx, "sub-department created", "department_id", departmentID, "sub_department_id", s.ID)
	return s, nil
}

func (u *DepartmentUsecase) ListSubDepartments(ctx context.Context, departmentID int64) ([]*domain.SubDepartment, error) {
	d, err := u.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, wrapStorage(err, "list sub-departments")
	}
	return d.SubDepartments, nil
}

func (u *DepartmentUsecase) GetSubDepartment(ctx context.Context, id int64) (*domain.SubDepartment, error) {
	s, err := u.subDepartments.GetByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err, "get sub-department")
	}
	return s, nil
}

func (u *DepartmentUsecase) RenameSubDepartment(ctx context.Context, id int64, name string) (*domain.SubDepartment, error) {
	s, err := u.subDepartments.Rename(ctx, id, name)
	if err != nil {
		return nil, wrapStorage(err, "rename sub-department")
	}
	return s, nil
}

func (u *DepartmentUsecase) DeleteSubDepartment(ctx context.Context, id int64) error {
	if err := u.subDepartments.Delete(ctx, id); err != nil {
		return wrapStorage(err, "delete sub-department")
	}
	return nil
}

// wrapStorage leaves not-found rejections untouched and attaches a stack to
// everything else.
func wrapStorage(err error, op string) error {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return pkgerrors.Wrap(err, op)
}
