package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// orgWriteLockKey guards the whole org graph. Hierarchy checks read several
// rows before writing, so writers are serialized on one advisory lock.
const orgWriteLockKey int64 = 0x6f7267

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Begin(ctx context.Context) (Tx, error) {
	if s.pool == nil {
		return nil, errors.New("postgres pool not configured")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orgWriteLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Employees() EmployeeRepository     { return NewEmployeeRepository(t.tx) }
func (t *postgresTx) Teams() TeamRepository             { return NewTeamRepository(t.tx) }
func (t *postgresTx) Departments() DepartmentRepository { return NewDepartmentRepository(t.tx) }
func (t *postgresTx) Users() UserRepository             { return NewUserRepository(t.tx) }
func (t *postgresTx) AuditLogs() AuditLogRepository     { return NewAuditLogRepository(t.tx) }

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func checkAffected(cmd pgconn.CommandTag, err error) error {
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term anywhere, with LIKE
// wildcards in term taken literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
