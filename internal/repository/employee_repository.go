package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

const employeeColumns = `id, name, email, title, hired_on, salary, status, manager_id, department_id, team_id, created_at, updated_at`

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository constructs repository.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	const query = `
        INSERT INTO employees (id, name, email, title, hired_on, salary, status, manager_id, department_id, team_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.Name,
		e.Email,
		e.Title,
		e.HiredOn,
		e.Salary,
		e.Status,
		e.ManagerID,
		e.DepartmentID,
		e.TeamID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return translateError(err)
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	const query = `
        UPDATE employees SET name=$1, title=$2, hired_on=$3, salary=$4, status=$5,
            manager_id=$6, department_id=$7, team_id=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		e.Name,
		e.Title,
		e.HiredOn,
		e.Salary,
		e.Status,
		e.ManagerID,
		e.DepartmentID,
		e.TeamID,
		e.ID,
	).Scan(&e.UpdatedAt)
	return translateError(err)
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id))
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email=$1`, email)
}

func (r *employeeRepository) GetRoot(ctx context.Context) (*domain.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE manager_id IS NULL ORDER BY created_at LIMIT 1`)
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	where, args := employeeWhere(filter)
	return r.query(ctx, fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY created_at, id`, employeeColumns, where), args...)
}

func (r *employeeRepository) ListPage(ctx context.Context, filter EmployeeFilter, page Page) ([]domain.Employee, int, error) {
	where, args := employeeWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY name COLLATE "C", id`, employeeColumns, where)
	if page.Limit > 0 {
		args = append(args, page.Limit, page.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func employeeWhere(filter EmployeeFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ManagerID != nil {
		args = append(args, *filter.ManagerID)
		clauses = append(clauses, fmt.Sprintf("manager_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		clauses = append(clauses, fmt.Sprintf("team_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.MinSalary != nil {
		args = append(args, *filter.MinSalary)
		clauses = append(clauses, fmt.Sprintf("salary>=$%d", len(args)))
	}
	if filter.MaxSalary != nil {
		args = append(args, *filter.MaxSalary)
		clauses = append(clauses, fmt.Sprintf("salary<=$%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *employeeRepository) query(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *employeeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *employeeRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return e, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.Title,
		&e.HiredOn,
		&e.Salary,
		&e.Status,
		&e.ManagerID,
		&e.DepartmentID,
		&e.TeamID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
