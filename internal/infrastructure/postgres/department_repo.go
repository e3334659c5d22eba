package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/departments-api/internal/domain"
	"github.com/ErlanBelekov/departments-api/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

type rowScanner interface {
	Scan(dest ...any) error
}

type DepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepository(pool *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

// Create inserts the department and every sub-department in one transaction,
// so a failing child leaves no orphan parent behind.
func (r *DepartmentRepository) Create(ctx context.Context, name string, subDepartmentNames []string) (*domain.Department, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var d domain.Department
	err = tx.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1)
		 RETURNING id, name, created_at, updated_at`, name,
	).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert department: %w", err)
	}

	d.SubDepartments = make([]*domain.SubDepartment, 0, len(subDepartmentNames))
	for _, subName := range subDepartmentNames {
		s, err := scanSubDepartment(tx.QueryRow(ctx,
			`INSERT INTO sub_departments (department_id, name) VALUES ($1, $2)
			 RETURNING id, department_id, name, created_at, updated_at`, d.ID, subName,
		), 0)
		if err != nil {
			return nil, fmt.Errorf("insert sub-department: %w", err)
		}
		d.SubDepartments = append(d.SubDepartments, s)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	d, err := scanDepartment(r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`, id,
	), id)
	if err != nil {
		return nil, err
	}

	if err := r.attachSubDepartments(ctx, []*domain.Department{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DepartmentRepository) List(ctx context.Context, input repository.ListDepartmentsInput) ([]*domain.Department, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM departments
		 ORDER BY id ASC
		 OFFSET $1 LIMIT $2`, input.Offset, input.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := make([]*domain.Department, 0, input.Limit)
	for rows.Next() {
		d, err := scanDepartment(rows, 0)
		if err != nil {
			return nil, 0, err
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate departments: %w", err)
	}

	if err := r.attachSubDepartments(ctx, departments); err != nil {
		return nil, 0, err
	}
	return departments, total, nil
}

func (r *DepartmentRepository) Rename(ctx context.Context, id int64, name string) (*domain.Department, error) {
	d, err := scanDepartment(r.pool.QueryRow(ctx,
		`UPDATE departments SET name = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, name, created_at, updated_at`, id, name,
	), id)
	if err != nil {
		return nil, err
	}

	if err := r.attachSubDepartments(ctx, []*domain.Department{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes children first and then the parent inside one transaction.
// The ON DELETE CASCADE constraint covers writers that bypass this path.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM sub_departments WHERE department_id = $1`, id); err != nil {
		return fmt.Errorf("delete sub-departments: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.DepartmentNotFound(id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// attachSubDepartments loads children for all departments with one query.
func (r *DepartmentRepository) attachSubDepartments(ctx context.Context, departments []*domain.Department) error {
	if len(departments) == 0 {
		return nil
	}

	ids := make([]int64, len(departments))
	byID := make(map[int64]*domain.Department, len(departments))
	for i, d := range departments {
		ids[i] = d.ID
		d.SubDepartments = []*domain.SubDepartment{}
		byID[d.ID] = d
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, department_id, name, created_at, updated_at
		 FROM sub_departments
		 WHERE department_id = ANY($1)
		 ORDER BY id ASC`, ids)
	if err != nil {
		return fmt.Errorf("list sub-departments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSubDepartment(rows, 0)
		if err != nil {
			return err
		}
		if d, ok := byID[s.DepartmentID]; ok {
			d.SubDepartments = append(d.SubDepartments, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sub-departments: %w", err)
	}
	return nil
}

type SubDepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewSubDepartmentRepository(pool *pgxpool.Pool) *SubDepartmentRepository {
	return &SubDepartmentRepository{pool: pool}
}

func (r *SubDepartmentRepository) Create(ctx context.Context, departmentID int64, name string) (*domain.SubDepartment, error) {
	s, err := scanSubDepartment(r.pool.QueryRow(ctx,
		`INSERT INTO sub_departments (department_id, name) VALUES ($1, $2)
		 RETURNING id, department_id, name, created_at, updated_at`, departmentID, name,
	), 0)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, domain.DepartmentNotFound(departmentID)
		}
		return nil, err
	}
	return s, nil
}

func (r *SubDepartmentRepository) GetByID(ctx context.Context, id int64) (*domain.SubDepartment, error) {
	return scanSubDepartment(r.pool.QueryRow(ctx,
		`SELECT id, department_id, name, created_at, updated_at
		 FROM sub_departments WHERE id = $1`, id,
	), id)
}

func (r *SubDepartmentRepository) Rename(ctx context.Context, id int64, name string) (*domain.SubDepartment, error) {
	return scanSubDepartment(r.pool.QueryRow(ctx,
		`UPDATE sub_departments SET name = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, department_id, name, created_at, updated_at`, id, name,
	), id)
}

func (r *SubDepartmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sub_departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sub-department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.SubDepartmentNotFound(id)
	}
	return nil
}

// scanDepartment maps pgx.ErrNoRows to a not-found error for id.
func scanDepartment(row rowScanner, id int64) (*domain.Department, error) {
	var d domain.Department
	err := row.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.DepartmentNotFound(id)
		}
		return nil, fmt.Errorf("scan department: %w", err)
	}
	return &d, nil
}

func scanSubDepartment(row rowScanner, id int64) (*domain.SubDepartment, error) {
	var s domain.SubDepartment
	err := row.Scan(&s.ID, &s.DepartmentID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.SubDepartmentNotFound(id)
		}
		return nil, fmt.Errorf("scan sub-department: %w", err)
	}
	return &s, nil
}
