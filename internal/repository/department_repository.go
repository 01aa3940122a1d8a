package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

type departmentRepository struct {
	db DBTX
}

// NewDepartmentRepository constructs repository.
func NewDepartmentRepository(db DBTX) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (id, name) VALUES ($1,$2)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, dept.ID, dept.Name).Scan(&dept.CreatedAt, &dept.UpdatedAt)
	return translateError(err)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `UPDATE departments SET name=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, dept.Name, dept.ID).Scan(&dept.UpdatedAt)
	return translateError(err)
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.Exec(ctx, `DELETE FROM departments WHERE id=$1`, id))
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments WHERE id=$1`
	dept, err := scanDepartment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err)
	}
	return dept, nil
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments WHERE name=$1`
	dept, err := scanDepartment(r.db.QueryRow(ctx, query, name))
	if err != nil {
		return nil, translateError(err)
	}
	return dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	return r.query(ctx, `SELECT id, name, created_at, updated_at FROM departments ORDER BY name`)
}

func (r *departmentRepository) SearchByName(ctx context.Context, term string, limit int) ([]domain.Department, error) {
	return r.query(ctx, `SELECT id, name, created_at, updated_at FROM departments
        WHERE name ILIKE $1 ORDER BY name LIMIT $2`, containsPattern(term), limit)
}

func (r *departmentRepository) query(ctx context.Context, query string, args ...any) ([]domain.Department, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(&dept.ID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return nil, err
	}
	return &dept, nil
}
