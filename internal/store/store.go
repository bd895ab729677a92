package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"ignite/internal/employee"
	"ignite/internal/employeeapi"
	"ignite/internal/metrics"
)

// Status describes the outcome of the last store operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var allStatuses = []string{
	string(StatusIdle), string(StatusLoading), string(StatusSucceeded), string(StatusFailed),
}

// API is the part of the employee service the store drives.
type API interface {
	List(ctx context.Context) ([]employee.Record, error)
	Create(ctx context.Context, d employee.Draft) (employee.Record, error)
	Delete(ctx context.Context, id string) error
}

// State is an immutable view of the store.
type State struct {
	Records []employee.Record
	Status  Status
	Error   string
}

// Store holds the known employee collection. The collection only changes
// through LoadAll, Create and Delete, and is replaced as a whole each time.
// Operations are not coordinated with each other: each one moves the status
// when it starts and again when its own response arrives.
type Store struct {
	api API
	log zerolog.Logger

	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// New creates an idle, empty store.
func New(api API, log zerolog.Logger) *Store {
	s := &Store{
		api:   api,
		log:   log.With().Str("component", "store").Logger(),
		state: State{Records: []employee.Record{}, Status: StatusIdle},
		subs:  make(map[int]func(State)),
	}
	metrics.SetStoreState(string(StatusIdle), 0, allStatuses)
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// Subscribe registers fn to receive every state transition. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// LoadAll replaces the collection with the service's list. On failure the
// previous collection is kept.
func (s *Store) LoadAll(ctx context.Context) error {
	s.begin()

	recs, err := s.api.List(ctx)
	if err != nil {
		s.fail(employeeapi.OpList, err)
		return err
	}

	s.apply(func(st *State) {
		st.Records = slices.Clone(recs)
	})
	return nil
}

// Create submits a validated draft and appends the record the service returns.
func (s *Store) Create(ctx context.Context, d employee.Draft) (employee.Record, error) {
	s.begin()

	rec, err := s.api.Create(ctx, d)
	if err != nil {
		s.fail(employeeapi.OpCreate, err)
		return employee.Record{}, err
	}

	s.apply(func(st *State) {
		next := make([]employee.Record, 0, len(st.Records)+1)
		next = append(next, st.Records...)
		st.Records = append(next, rec)
	})
	return rec, nil
}

// Delete removes every record with id once the service confirms the delete.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.begin()

	if err := s.api.Delete(ctx, id); err != nil {
		s.fail(employeeapi.OpDelete, err)
		return err
	}

	s.apply(func(st *State) {
		st.Records = slices.DeleteFunc(slices.Clone(st.Records), func(r employee.Record) bool {
			return r.ID == id
		})
	})
	return nil
}

func (s *Store) begin() {
	s.transition(func(st *State) {
		st.Status = StatusLoading
		st.Error = ""
	})
}

func (s *Store) apply(mutate func(*State)) {
	s.transition(func(st *State) {
		mutate(st)
		st.Status = StatusSucceeded
		st.Error = ""
	})
}

func (s *Store) fail(op employeeapi.Op, err error) {
	msg := employeeapi.DefaultMessage(op)
	var rf *employeeapi.RequestFailure
	if errors.As(err, &rf) && rf.Message != "" {
		msg = rf.Message
	}
	s.log.Warn().Err(err).Str("op", string(op)).Msg("store operation failed")

	s.transition(func(st *State) {
		st.Status = StatusFailed
		st.Error = msg
	})
}

func (s *Store) transition(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.cloneLocked()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	metrics.SetStoreState(string(snap.Status), len(snap.Records), allStatuses)
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) cloneLocked() State {
	st := s.state
	st.Records = slices.Clone(s.state.Records)
	return st
}
