package form

import (
	"context"

	"github.com/rs/zerolog"

	"ignite/internal/employee"
	"ignite/internal/flash"
)

// Creator is satisfied by *store.Store.
type Creator interface {
	Create(ctx context.Context, d employee.Draft) (employee.Record, error)
}

// Add drives the add employee form.
type Add struct {
	store    Creator
	notifier flash.Notifier
	log      zerolog.Logger
	busy     inflight
}

func NewAdd(store Creator, notifier flash.Notifier, log zerolog.Logger) *Add {
	return &Add{store: store, notifier: notifier, log: log.With().Str("form", "add").Logger()}
}

// Submit validates d and, when it is valid, creates the record through the
// store. Invalid drafts never reach the network.
func (a *Add) Submit(ctx context.Context, session string, d employee.Draft) Result {
	clean, res, bad := invalid(d)
	if bad {
		return res
	}

	if !a.busy.acquire(session) {
		return Result{Draft: clean, Err: ErrInFlight}
	}
	defer a.busy.release(session)

	rec, err := a.store.Create(ctx, clean)
	if err != nil {
		a.log.Warn().Err(err).Msg("create employee")
		notify(ctx, a.log, a.notifier, session, flash.Failure(msgAddFailed))
		return Result{Draft: clean, Err: err}
	}

	a.log.Info().Str("id", rec.ID).Msg("employee added")
	notify(ctx, a.log, a.notifier, session, flash.Success(msgAdded))
	return Result{Draft: clean, Record: rec, Redirect: ListPath}
}
