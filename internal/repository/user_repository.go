package repository

import (
	"context"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

const userColumns = `id, name, email, employee_id, created_at, updated_at`

type userRepository struct {
	db DBTX
}

// NewUserRepository constructs the repository.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, employee_id)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.EmployeeID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	return translateError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, employee_id=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, user.Name, user.EmployeeID, user.ID).Scan(&user.UpdatedAt)
	return translateError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1) ORDER BY created_at LIMIT 1`, email)
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE employee_id=$1`, employeeID)
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.EmployeeID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}
