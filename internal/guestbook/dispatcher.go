package guestbook

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/charlesng35/guestbook/internal/models"
	"github.com/charlesng35/guestbook/internal/services"
	"github.com/charlesng35/guestbook/pkg/logger"
	"github.com/charlesng35/guestbook/pkg/metrics"
)

// EntryStore is the persistence contract the dispatcher relies on.
// Missing rows are reported with services.ErrEntryNotFound.
type EntryStore interface {
	Create(ctx context.Context, name, message string) (*models.Entry, error)
	FindByID(ctx context.Context, id uint64) (*models.Entry, error)
	Update(ctx context.Context, id uint64, name, message string) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context) ([]models.Entry, error)
}

// TokenGuard issues and checks per-session anti-forgery tokens.
type TokenGuard interface {
	CurrentToken(ctx context.Context, sessionID string) (string, error)
	Verify(ctx context.Context, sessionID, supplied string) (bool, error)
	Rotate(ctx context.Context, sessionID string) (string, error)
	Lock(sessionID string) (unlock func())
}

// Form modes.
const (
	ModeCreate = "create"
	ModeUpdate = "update"
)

// FormState is what the entry form shows: blank, re-filled after a failed
// submission, or pre-filled for editing.
type FormState struct {
	Mode    string
	EntryID string
	EntryFields
}

// Editing reports whether the form targets an existing entry.
func (f FormState) Editing() bool {
	return f.Mode == ModeUpdate
}

// Result is the outcome of one request. When RedirectTo is set the
// presentation layer must redirect instead of rendering.
type Result struct {
	Operation  Operation
	Entries    []models.Entry
	Errors     []string
	Form       FormState
	Token      string
	RedirectTo string
}

// Redirect reports whether the result ends the request with a redirect.
func (r *Result) Redirect() bool {
	return r != nil && r.RedirectTo != ""
}

// Dispatcher runs the guestbook state machine: it selects one operation per
// request, guards mutations with the session token, validates input and
// falls back to the listing on any recoverable failure.
type Dispatcher struct {
	store EntryStore
	guard TokenGuard
	log   *zap.Logger
}

// NewDispatcher wires a dispatcher to its collaborators.
func NewDispatcher(store EntryStore, guard TokenGuard) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("guestbook: entry store is required")
	}
	if guard == nil {
		return nil, errors.New("guestbook: token guard is required")
	}
	return &Dispatcher{
		store: store,
		guard: guard,
		log:   logger.WithModule("guestbook"),
	}, nil
}

// Dispatch handles req. The returned error is reserved for storage and token
// store faults; user mistakes are reported through Result.Errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	op := SelectOperation(req)
	result := &Result{
		Operation: op,
		Form:      FormState{Mode: ModeCreate},
	}

	var err error
	switch op {
	case OpFetchEdit:
		err = d.fetchEdit(ctx, req, result)
	case OpCreate:
		err = d.create(ctx, req, result)
	case OpUpdate:
		err = d.update(ctx, req, result)
	case OpDelete:
		err = d.delete(ctx, req, result)
	}
	if err != nil {
		d.log.Error("request failed",
			zap.String("operation", op.String()),
			zap.Error(err),
		)
		if op.Mutating() {
			metrics.EntryMutations.WithLabelValues(op.String(), "error").Inc()
		}
		return nil, err
	}

	if result.Redirect() {
		metrics.EntryMutations.WithLabelValues(op.String(), "success").Inc()
		return result, nil
	}
	if op.Mutating() {
		metrics.EntryMutations.WithLabelValues(op.String(), "rejected").Inc()
	}

	if err := d.list(ctx, req, result); err != nil {
		d.log.Error("list entries failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) list(ctx context.Context, req Request, result *Result) error {
	entries, err := d.store.List(ctx)
	if err != nil {
		return err
	}
	token, err := d.guard.CurrentToken(ctx, req.SessionID)
	if err != nil {
		return err
	}
	result.Entries = entries
	result.Token = token
	return nil
}

func (d *Dispatcher) fetchEdit(ctx context.Context, req Request, result *Result) error {
	id, ok := ParseEntryID(req.Query.Get("edit"))
	if !ok {
		return nil
	}

	entry, err := d.store.FindByID(ctx, id)
	if errors.Is(err, services.ErrEntryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	result.Form = FormState{
		Mode:    ModeUpdate,
		EntryID: strconv.FormatUint(entry.ID, 10),
		EntryFields: EntryFields{
			GuestName:   entry.GuestName,
			MessageText: entry.MessageText,
		},
	}
	return nil
}

func (d *Dispatcher) create(ctx context.Context, req Request, result *Result) error {
	fields := submittedFields(req)
	result.Form = FormState{Mode: ModeCreate, EntryFields: fields}

	unlock := d.guard.Lock(req.SessionID)
	defer unlock()

	if ok, err := d.verifyToken(ctx, req, req.Form.Get("csrf_token")); err != nil || !ok {
		if err == nil {
			result.Errors = append(result.Errors, MsgInvalidToken)
		}
		return err
	}

	if errs := ValidateFields(fields); len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return nil
	}

	clean := fields.Trimmed()
	entry, err := d.store.Create(ctx, clean.GuestName, clean.MessageText)
	if err != nil {
		return err
	}
	d.log.Info("entry created", zap.Uint64("entry_id", entry.ID))

	return d.finishMutation(ctx, req, result)
}

func (d *Dispatcher) update(ctx context.Context, req Request, result *Result) error {
	fields := submittedFields(req)
	rawID := req.Form.Get("entry_id")
	result.Form = FormState{Mode: ModeUpdate, EntryID: rawID, EntryFields: fields}

	unlock := d.guard.Lock(req.SessionID)
	defer unlock()

	if ok, err := d.verifyToken(ctx, req, req.Form.Get("csrf_token")); err != nil || !ok {
		if err == nil {
			result.Errors = append(result.Errors, MsgInvalidToken)
		}
		return err
	}

	id, ok := ParseEntryID(rawID)
	if !ok {
		result.Errors = append(result.Errors, MsgInvalidEntryID)
		result.Form.Mode = ModeCreate
		result.Form.EntryID = ""
		return nil
	}

	if errs := ValidateFields(fields); len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return nil
	}

	clean := fields.Trimmed()
	err := d.store.Update(ctx, id, clean.GuestName, clean.MessageText)
	if errors.Is(err, services.ErrEntryNotFound) {
		result.Errors = append(result.Errors, MsgEntryNotFound)
		result.Form.Mode = ModeCreate
		result.Form.EntryID = ""
		return nil
	}
	if err != nil {
		return err
	}
	d.log.Info("entry updated", zap.Uint64("entry_id", id))

	return d.finishMutation(ctx, req, result)
}

func (d *Dispatcher) delete(ctx context.Context, req Request, result *Result) error {
	id, ok := ParseEntryID(req.Query.Get("delete"))
	if !ok {
		result.Errors = append(result.Errors, MsgInvalidDeleteID)
		return nil
	}

	unlock := d.guard.Lock(req.SessionID)
	defer unlock()

	if ok, err := d.verifyToken(ctx, req, req.Query.Get("token")); err != nil || !ok {
		if err == nil {
			result.Errors = append(result.Errors, MsgInvalidDeleteToken)
		}
		return err
	}

	if _, err := d.store.FindByID(ctx, id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			result.Errors = append(result.Errors, MsgEntryNotFound)
			return nil
		}
		return err
	}

	// The row may vanish between the existence check and the delete.
	if err := d.store.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			result.Errors = append(result.Errors, MsgEntryNotFound)
			return nil
		}
		return err
	}
	d.log.Info("entry deleted", zap.Uint64("entry_id", id))

	return d.finishMutation(ctx, req, result)
}

func (d *Dispatcher) verifyToken(ctx context.Context, req Request, supplied string) (bool, error) {
	ok, err := d.guard.Verify(ctx, req.SessionID, supplied)
	if err != nil {
		return false, fmt.Errorf("guestbook: verify token: %w", err)
	}
	if !ok {
		op := SelectOperation(req)
		metrics.CSRFRejections.WithLabelValues(op.String()).Inc()
		d.log.Warn("anti-forgery check failed",
			zap.String("operation", op.String()),
			zap.Bool("token_supplied", supplied != ""),
		)
	}
	return ok, nil
}

// finishMutation rotates the token and points the client at the bare listing URL.
func (d *Dispatcher) finishMutation(ctx context.Context, req Request, result *Result) error {
	token, err := d.guard.Rotate(ctx, req.SessionID)
	if err != nil {
		return fmt.Errorf("guestbook: rotate token: %w", err)
	}
	result.Token = token
	result.RedirectTo = listingURL(req.Path)
	return nil
}

func submittedFields(req Request) EntryFields {
	return EntryFields{
		GuestName:   req.Form.Get("guest_name"),
		MessageText: req.Form.Get("message_text"),
	}
}

func listingURL(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
