package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/org-hierarchy/internal/domain"
)

const teamColumns = `id, name, lead_id, parent_team_id, department_id, created_at, updated_at`

type teamRepository struct {
	db DBTX
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (id, name, lead_id, parent_team_id, department_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		team.ID,
		team.Name,
		team.LeadID,
		team.ParentTeamID,
		team.DepartmentID,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	return translateError(err)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, lead_id=$2, parent_team_id=$3, department_id=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		team.Name,
		team.LeadID,
		team.ParentTeamID,
		team.DepartmentID,
		team.ID,
	).Scan(&team.UpdatedAt)
	return translateError(err)
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.Exec(ctx, `DELETE FROM teams WHERE id=$1`, id))
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	team, err := scanTeam(r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=$1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return team, nil
}

func (r *teamRepository) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	team, err := scanTeam(r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE name=$1`, name))
	if err != nil {
		return nil, translateError(err)
	}
	return team, nil
}

func (r *teamRepository) SearchByName(ctx context.Context, term string, limit int) ([]domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE name ILIKE $1 ORDER BY name LIMIT $2`
	rows, err := r.db.Query(ctx, query, containsPattern(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, rows.Err()
}

func (r *teamRepository) List(ctx context.Context, filter TeamFilter) ([]domain.Team, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ParentTeamID != nil {
		args = append(args, *filter.ParentTeamID)
		clauses = append(clauses, fmt.Sprintf("parent_team_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		clauses = append(clauses, fmt.Sprintf("lead_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM teams WHERE %s ORDER BY created_at, id`,
		teamColumns, strings.Join(clauses, " AND "))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *team)
	}
	return result, rows.Err()
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	if err := row.Scan(
		&team.ID,
		&team.Name,
		&team.LeadID,
		&team.ParentTeamID,
		&team.DepartmentID,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}
