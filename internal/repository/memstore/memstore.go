// Package memstore provides an in-memory transactional implementation of
// repository.Store. A unit of work operates on a private copy of the state and
// swaps it in on commit; the store mutex is held for the whole unit of work so
// writers are serialized.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/repository"
)

var errTxDone = errors.New("memstore: transaction already finished")

type state struct {
	employees   map[string]*domain.Employee
	teams       map[string]*domain.Team
	departments map[string]*domain.Department
	users       map[string]*domain.User
	auditLogs   []domain.AuditLog
	seqs        map[string]int64
	nextSeq     int64
}

func newState() state {
	return state{
		employees:   map[string]*domain.Employee{},
		teams:       map[string]*domain.Team{},
		departments: map[string]*domain.Department{},
		users:       map[string]*domain.User{},
		seqs:        map[string]int64{},
	}
}

func (s state) clone() state {
	cp := newState()
	for k, v := range s.employees {
		cp.employees[k] = v.Clone()
	}
	for k, v := range s.teams {
		cp.teams[k] = v.Clone()
	}
	for k, v := range s.departments {
		cp.departments[k] = v.Clone()
	}
	for k, v := range s.users {
		cp.users[k] = v.Clone()
	}
	for k, v := range s.seqs {
		cp.seqs[k] = v
	}
	cp.auditLogs = append([]domain.AuditLog(nil), s.auditLogs...)
	cp.nextSeq = s.nextSeq
	return cp
}

func (s *state) assignSeq(id string) {
	s.nextSeq++
	s.seqs[id] = s.nextSeq
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is an in-memory repository.Store.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{state: newState(), now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin locks the store and returns a unit of work over a copy of its state.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{store: s, work: s.state.clone()}, nil
}

type tx struct {
	store *Store
	work  state
	done  bool
}

func (t *tx) Employees() repository.EmployeeRepository     { return employeeRepo{t} }
func (t *tx) Teams() repository.TeamRepository             { return teamRepo{t} }
func (t *tx) Departments() repository.DepartmentRepository { return departmentRepo{t} }
func (t *tx) Users() repository.UserRepository             { return userRepo{t} }
func (t *tx) AuditLogs() repository.AuditLogRepository     { return auditLogRepo{t} }

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer t.store.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.state = t.work
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *tx) check(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	return ctx.Err()
}

func (t *tx) sortBySeq(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return t.work.seqs[ids[i]] < t.work.seqs[ids[j]]
	})
}

type employeeRepo struct{ t *tx }

func (r employeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.employees[e.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.t.work.employees {
		if existing.Email == e.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.t.store.now()
	e.CreatedAt, e.UpdatedAt = now, now
	r.t.work.employees[e.ID] = e.Clone()
	r.t.work.assignSeq(e.ID)
	return nil
}

func (r employeeRepo) Update(ctx context.Context, e *domain.Employee) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	existing, ok := r.t.work.employees[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.UpdatedAt = r.t.store.now()
	stored := e.Clone()
	stored.Email = existing.Email
	stored.CreatedAt = existing.CreatedAt
	r.t.work.employees[e.ID] = stored
	return nil
}

func (r employeeRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.t.work.employees, id)
	delete(r.t.work.seqs, id)
	return nil
}

func (r employeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	e, ok := r.t.work.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.Clone(), nil
}

func (r employeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, e := range r.t.work.employees {
		if e.Email == email {
			return e.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r employeeRepo) GetRoot(ctx context.Context) (*domain.Employee, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	var roots []string
	for id, e := range r.t.work.employees {
		if e.ManagerID == nil {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		return nil, repository.ErrNotFound
	}
	r.t.sortBySeq(roots)
	return r.t.work.employees[roots[0]].Clone(), nil
}

func (r employeeRepo) List(ctx context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	ids := r.matching(filter)
	r.t.sortBySeq(ids)
	result := make([]domain.Employee, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.t.work.employees[id].Clone())
	}
	return result, nil
}

func (r employeeRepo) ListPage(ctx context.Context, filter repository.EmployeeFilter, page repository.Page) ([]domain.Employee, int, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, 0, err
	}
	ids := r.matching(filter)
	employees := r.t.work.employees
	sort.Slice(ids, func(i, j int) bool {
		a, b := employees[ids[i]], employees[ids[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	total := len(ids)
	start, end := pageBounds(total, page)
	result := make([]domain.Employee, 0, end-start)
	for _, id := range ids[start:end] {
		result = append(result, *employees[id].Clone())
	}
	return result, total, nil
}

func (r employeeRepo) matching(filter repository.EmployeeFilter) []string {
	search := strings.ToLower(filter.Search)
	var ids []string
	for id, e := range r.t.work.employees {
		if filter.ManagerID != nil && !domain.SameRef(e.ManagerID, filter.ManagerID) {
			continue
		}
		if filter.DepartmentID != nil && !domain.SameRef(e.DepartmentID, filter.DepartmentID) {
			continue
		}
		if filter.TeamID != nil && !domain.SameRef(e.TeamID, filter.TeamID) {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.MinSalary != nil && (e.Salary == nil || *e.Salary < *filter.MinSalary) {
			continue
		}
		if filter.MaxSalary != nil && (e.Salary == nil || *e.Salary > *filter.MaxSalary) {
			continue
		}
		if search != "" && !containsFold(e.Name, search) && !containsFold(e.Email, search) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// containsFold reports whether s contains the lowercased needle, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}

func pageBounds(total int, page repository.Page) (int, int) {
	start := page.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if page.Limit > 0 && start+page.Limit < total {
		end = start + page.Limit
	}
	return start, end
}

func (r employeeRepo) Count(ctx context.Context) (int, error) {
	if err := r.t.check(ctx); err != nil {
		return 0, err
	}
	return len(r.t.work.employees), nil
}

type teamRepo struct{ t *tx }

func (r teamRepo) Create(ctx context.Context, team *domain.Team) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.teams[team.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.t.work.teams {
		if existing.Name == team.Name {
			return repository.ErrDuplicate
		}
	}
	now := r.t.store.now()
	team.CreatedAt, team.UpdatedAt = now, now
	r.t.work.teams[team.ID] = team.Clone()
	r.t.work.assignSeq(team.ID)
	return nil
}

func (r teamRepo) Update(ctx context.Context, team *domain.Team) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	existing, ok := r.t.work.teams[team.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.t.work.teams {
		if id != team.ID && other.Name == team.Name {
			return repository.ErrDuplicate
		}
	}
	team.UpdatedAt = r.t.store.now()
	stored := team.Clone()
	stored.CreatedAt = existing.CreatedAt
	r.t.work.teams[team.ID] = stored
	return nil
}

func (r teamRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.t.work.teams, id)
	delete(r.t.work.seqs, id)
	return nil
}

func (r teamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	team, ok := r.t.work.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return team.Clone(), nil
}

func (r teamRepo) GetByName(ctx context.Context, name string) (*domain.Team, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, team := range r.t.work.teams {
		if team.Name == name {
			return team.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r teamRepo) SearchByName(ctx context.Context, term string, limit int) ([]domain.Team, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var result []domain.Team
	for _, team := range r.t.work.teams {
		if containsFold(team.Name, needle) {
			result = append(result, *team.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r teamRepo) List(ctx context.Context, filter repository.TeamFilter) ([]domain.Team, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	var ids []string
	for id, team := range r.t.work.teams {
		if filter.ParentTeamID != nil && !domain.SameRef(team.ParentTeamID, filter.ParentTeamID) {
			continue
		}
		if filter.DepartmentID != nil && !domain.SameRef(team.DepartmentID, filter.DepartmentID) {
			continue
		}
		if filter.LeadID != nil && !domain.SameRef(team.LeadID, filter.LeadID) {
			continue
		}
		ids = append(ids, id)
	}
	r.t.sortBySeq(ids)
	result := make([]domain.Team, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.t.work.teams[id].Clone())
	}
	return result, nil
}

type departmentRepo struct{ t *tx }

func (r departmentRepo) Create(ctx context.Context, dept *domain.Department) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.departments[dept.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.t.work.departments {
		if existing.Name == dept.Name {
			return repository.ErrDuplicate
		}
	}
	now := r.t.store.now()
	dept.CreatedAt, dept.UpdatedAt = now, now
	r.t.work.departments[dept.ID] = dept.Clone()
	r.t.work.assignSeq(dept.ID)
	return nil
}

func (r departmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	existing, ok := r.t.work.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.t.work.departments {
		if id != dept.ID && other.Name == dept.Name {
			return repository.ErrDuplicate
		}
	}
	dept.UpdatedAt = r.t.store.now()
	stored := dept.Clone()
	stored.CreatedAt = existing.CreatedAt
	r.t.work.departments[dept.ID] = stored
	return nil
}

func (r departmentRepo) Delete(ctx context.Context, id string) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.t.work.departments, id)
	delete(r.t.work.seqs, id)
	return nil
}

func (r departmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	dept, ok := r.t.work.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return dept.Clone(), nil
}

func (r departmentRepo) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, dept := range r.t.work.departments {
		if dept.Name == name {
			return dept.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r departmentRepo) SearchByName(ctx context.Context, term string, limit int) ([]domain.Department, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var result []domain.Department
	for _, dept := range r.t.work.departments {
		if containsFold(dept.Name, needle) {
			result = append(result, *dept.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r departmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	result := make([]domain.Department, 0, len(r.t.work.departments))
	for _, dept := range r.t.work.departments {
		result = append(result, *dept.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type userRepo struct{ t *tx }

func (r userRepo) unique(user *domain.User) error {
	for id, other := range r.t.work.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(other.Email, user.Email) {
			return repository.ErrDuplicate
		}
		if user.EmployeeID != nil && domain.SameRef(other.EmployeeID, user.EmployeeID) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	if _, ok := r.t.work.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	if err := r.unique(user); err != nil {
		return err
	}
	now := r.t.store.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.t.work.users[user.ID] = user.Clone()
	r.t.work.assignSeq(user.ID)
	return nil
}

func (r userRepo) Update(ctx context.Context, user *domain.User) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	existing, ok := r.t.work.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.unique(user); err != nil {
		return err
	}
	user.UpdatedAt = r.t.store.now()
	stored := user.Clone()
	stored.Email = existing.Email
	stored.CreatedAt = existing.CreatedAt
	r.t.work.users[user.ID] = stored
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	user, ok := r.t.work.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user.Clone(), nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, user := range r.t.work.users {
		if strings.EqualFold(user.Email, email) {
			return user.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, user := range r.t.work.users {
		if user.EmployeeID != nil && *user.EmployeeID == employeeID {
			return user.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

type auditLogRepo struct{ t *tx }

func (r auditLogRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if err := r.t.check(ctx); err != nil {
		return err
	}
	for _, existing := range r.t.work.auditLogs {
		if existing.ID == entry.ID {
			return repository.ErrDuplicate
		}
	}
	entry.CreatedAt = r.t.store.now()
	r.t.work.auditLogs = append(r.t.work.auditLogs, cloneAuditLog(*entry))
	return nil
}

func (r auditLogRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, err
	}
	for _, entry := range r.t.work.auditLogs {
		if entry.ID == id {
			cp := cloneAuditLog(entry)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r auditLogRepo) List(ctx context.Context, filter repository.AuditLogFilter) ([]domain.AuditLog, int, error) {
	if err := r.t.check(ctx); err != nil {
		return nil, 0, err
	}
	type indexed struct {
		seq   int
		entry domain.AuditLog
	}
	var matched []indexed
	for i, entry := range r.t.work.auditLogs {
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if filter.ChangeType != nil && entry.ChangeType != *filter.ChangeType {
			continue
		}
		if filter.ChangedByUserID != nil && !domain.SameRef(entry.ChangedByUserID, filter.ChangedByUserID) {
			continue
		}
		if filter.DateFrom != nil && entry.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && !entry.CreatedAt.Before(*filter.DateTo) {
			continue
		}
		matched = append(matched, indexed{seq: i, entry: entry})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
			if filter.Ascending {
				return a.entry.CreatedAt.Before(b.entry.CreatedAt)
			}
			return a.entry.CreatedAt.After(b.entry.CreatedAt)
		}
		if filter.Ascending {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	result := make([]domain.AuditLog, 0, end-offset)
	for _, m := range matched[offset:end] {
		result = append(result, cloneAuditLog(m.entry))
	}
	return result, total, nil
}

func cloneAuditLog(entry domain.AuditLog) domain.AuditLog {
	cp := entry
	cp.PreviousState = cloneMap(entry.PreviousState)
	cp.NewState = cloneMap(entry.NewState)
	if entry.ChangedByUserID != nil {
		id := *entry.ChangedByUserID
		cp.ChangedByUserID = &id
	}
	return cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
