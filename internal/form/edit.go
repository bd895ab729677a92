package form

import (
	"context"

	"github.com/rs/zerolog"

	"ignite/internal/edittoken"
	"ignite/internal/employee"
	"ignite/internal/flash"
)

// Updater is satisfied by *employeeapi.Client. Edits go straight to the
// service and do not touch the record store.
type Updater interface {
	Get(ctx context.Context, id string) (employee.Record, error)
	Update(ctx context.Context, id string, d employee.Draft) (employee.Record, error)
}

// EditView is what an edit form is rendered from.
type EditView struct {
	Record employee.Record
	Draft  employee.Draft
	Token  string
}

// Edit drives the edit employee form.
type Edit struct {
	api      Updater
	notifier flash.Notifier
	tokens   *edittoken.Issuer
	log      zerolog.Logger
	busy     inflight
}

func NewEdit(api Updater, notifier flash.Notifier, tokens *edittoken.Issuer, log zerolog.Logger) *Edit {
	return &Edit{api: api, notifier: notifier, tokens: tokens, log: log.With().Str("form", "edit").Logger()}
}

// Load fetches the record and signs the version the form is built from.
func (e *Edit) Load(ctx context.Context, session, id string) (EditView, error) {
	rec, err := e.api.Get(ctx, id)
	if err != nil {
		e.log.Warn().Err(err).Str("id", id).Msg("load employee")
		notify(ctx, e.log, e.notifier, session, flash.Failure(msgLoadFailed))
		return EditView{}, err
	}

	token, err := e.tokens.Issue(rec)
	if err != nil {
		return EditView{}, err
	}
	return EditView{Record: rec, Draft: rec.Draft(), Token: token}, nil
}

// Submit validates d and updates record id, unless the record changed since
// token was issued. A stale result carries a fresh token for the current
// version.
func (e *Edit) Submit(ctx context.Context, session, id, token string, d employee.Draft) Result {
	clean, res, bad := invalid(d)
	if bad {
		res.Token = token
		return res
	}

	key := session + "/" + id
	if !e.busy.acquire(key) {
		return Result{Draft: clean, Token: token, Err: ErrInFlight}
	}
	defer e.busy.release(key)

	claims, err := e.tokens.Verify(token, id)
	if err != nil {
		return e.fail(ctx, session, clean, token, err)
	}

	current, err := e.api.Get(ctx, id)
	if err != nil {
		return e.fail(ctx, session, clean, token, err)
	}
	if edittoken.Fingerprint(current) != claims.Fingerprint {
		fresh, err := e.tokens.Issue(current)
		if err != nil {
			return e.fail(ctx, session, clean, token, err)
		}
		e.log.Info().Str("id", id).Msg("rejected stale edit")
		notify(ctx, e.log, e.notifier, session, flash.Failure(msgStale))
		return Result{Draft: clean, Record: current, Token: fresh, Err: ErrStaleRecord}
	}

	rec, err := e.api.Update(ctx, id, clean)
	if err != nil {
		return e.fail(ctx, session, clean, token, err)
	}

	e.log.Info().Str("id", id).Msg("employee updated")
	notify(ctx, e.log, e.notifier, session, flash.Success(msgUpdated))
	return Result{Draft: clean, Record: rec, Redirect: ListPath}
}

func (e *Edit) fail(ctx context.Context, session string, d employee.Draft, token string, err error) Result {
	e.log.Warn().Err(err).Msg("update employee")
	notify(ctx, e.log, e.notifier, session, flash.Failure(msgUpdateFailed))
	return Result{Draft: d, Token: token, Err: err}
}
