package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/org-hierarchy/internal/domain"
	"github.com/spec-kit/org-hierarchy/internal/events"
	"github.com/spec-kit/org-hierarchy/internal/repository"
)

type eventSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *eventSink) handle(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func newSinkDispatcher() (events.Dispatcher, *eventSink) {
	sink := &eventSink{}
	d := events.NewInMemoryDispatcher()
	events.SubscribeAll(d, sink.handle)
	return d, sink
}

func TestUnitOfWorkPublishesAfterCommit(t *testing.T) {
	f := newFixture(t)
	dispatcher, sink := newSinkDispatcher()
	uow := NewUnitOfWork(f.store, dispatcher, zaptest.NewLogger(t))

	var ceo *domain.Employee
	err := uow.Do(f.ctx, func(tx repository.Tx) error {
		var err error
		ceo, err = f.org.CreateEmployee(f.ctx, tx, f.actor, EmployeeInput{Name: "CEO", Email: "ceo@example.com"})
		if err != nil {
			return err
		}
		_, err = f.org.CreateDepartment(f.ctx, tx, f.actor, "Engineering")
		return err
	})
	require.NoError(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, events.EventEmployeeChanged, sink.events[0].Type)
	assert.Equal(t, ceo.ID, sink.events[0].EntityID)
	assert.Equal(t, testActorID, *sink.events[0].ActorID)
	payload, ok := sink.events[0].Payload.(events.ChangePayload)
	require.True(t, ok)
	assert.Equal(t, domain.ChangeCreate, payload.ChangeType)
	assert.Equal(t, events.EventDepartmentChanged, sink.events[1].Type)
}

func TestUnitOfWorkRollsBackWithoutEvents(t *testing.T) {
	f := newFixture(t)
	dispatcher, sink := newSinkDispatcher()
	uow := NewUnitOfWork(f.store, dispatcher, nil)
	boom := errors.New("boom")

	err := uow.Do(f.ctx, func(tx repository.Tx) error {
		if _, err := f.org.CreateEmployee(f.ctx, tx, f.actor, EmployeeInput{Name: "CEO", Email: "ceo@example.com"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, sink.events)
	assert.Zero(t, f.auditCount())
	f.must(func(tx repository.Tx) error {
		n, err := tx.Employees().Count(f.ctx)
		assert.Zero(t, n)
		return err
	})
}

func TestUnitOfWorkIgnoresPublishFailures(t *testing.T) {
	f := newFixture(t)
	d := events.NewInMemoryDispatcher()
	d.Subscribe(events.EventDepartmentChanged, func(context.Context, events.Event) error {
		return errors.New("relay down")
	})
	uow := NewUnitOfWork(f.store, d, zaptest.NewLogger(t))

	err := uow.Do(f.ctx, func(tx repository.Tx) error {
		_, err := f.org.CreateDepartment(f.ctx, tx, f.actor, "Engineering")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.auditCount())
}

func TestUnitOfWorkCountsOnlyCommittedAuditEntries(t *testing.T) {
	f := newFixture(t)
	uow := NewUnitOfWork(f.store, nil, zaptest.NewLogger(t))
	created := orgAuditEntries.WithLabelValues(string(domain.EntityDepartment), string(domain.ChangeCreate))
	before := testutil.ToFloat64(created)

	err := uow.Do(f.ctx, func(tx repository.Tx) error {
		if _, err := f.org.CreateDepartment(f.ctx, tx, f.actor, "Finance"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, before, testutil.ToFloat64(created))

	err = uow.Do(f.ctx, func(tx repository.Tx) error {
		_, err := f.org.CreateDepartment(f.ctx, tx, f.actor, "Finance")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(created))
}
