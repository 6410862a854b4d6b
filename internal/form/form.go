// Package form drives create and edit dialogs: it holds the field values,
// validates them, performs exactly one write per submit and reports progress.
package form

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/store"
)

var (
	// ErrValidation is returned when a required field is missing. No write is made.
	ErrValidation = errors.New("please fill in all required fields")
	// ErrSubmitInFlight is returned while a previous submit has not finished.
	ErrSubmitInFlight = errors.New("a submit is already in progress")
	// ErrClosed is returned when the form is not open.
	ErrClosed = errors.New("form is not open")
)

const genericFailure = "something went wrong, please try again"

// State is the lifecycle of a dialog.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateSubmitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateSubmitting:
		return "submitting"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Record is an existing row that can seed the form in edit mode.
type Record[I any] interface {
	RecordID() string
	Input() I
}

// Writer performs the single write of a submit.
type Writer[I any] interface {
	Create(ctx context.Context, in I) error
	Update(ctx context.Context, id string, in I) error
}

type repoWriter[T any, I any] struct {
	repo store.Repository[T, I]
}

// FromRepository adapts a store or client repository to a Writer.
func FromRepository[T any, I any](repo store.Repository[T, I]) Writer[I] {
	return repoWriter[T, I]{repo: repo}
}

func (w repoWriter[T, I]) Create(ctx context.Context, in I) error {
	_, err := w.repo.Create(ctx, in)
	return err
}

func (w repoWriter[T, I]) Update(ctx context.Context, id string, in I) error {
	_, err := w.repo.Update(ctx, id, in)
	return err
}

// Option configures a Controller.
type Option[I any] func(*Controller[I])

// WithBusy registers a hook that receives true when a write starts and false
// when it ends.
func WithBusy[I any](fn func(busy bool)) Option[I] {
	return func(c *Controller[I]) { c.busy = fn }
}

// WithOnSuccess registers a hook that runs after every successful write.
func WithOnSuccess[I any](fn func()) Option[I] {
	return func(c *Controller[I]) { c.onSuccess = fn }
}

// WithRefresh registers a reload, usually a list model's Load, that runs
// after every successful write.
func WithRefresh[I any](fn func(ctx context.Context) error) Option[I] {
	return func(c *Controller[I]) { c.refresh = fn }
}

// Controller is the state of one dialog.
type Controller[I any] struct {
	writer    Writer[I]
	defaults  func() I
	busy      func(bool)
	onSuccess func()
	refresh   func(context.Context) error

	mu      sync.Mutex
	state   State
	editing string
	fields  I
	errMsg  string
}

// New creates a closed controller. defaults produces the empty form.
func New[I any](w Writer[I], defaults func() I, opts ...Option[I]) *Controller[I] {
	c := &Controller[I]{
		writer:   w,
		defaults: defaults,
		fields:   defaults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open shows the dialog. A nil rec opens it in create mode with default
// values, otherwise the fields are seeded from rec and a submit updates it.
func (c *Controller[I]) Open(rec Record[I]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	if isNil(rec) {
		c.editing = ""
		c.fields = c.defaults()
	} else {
		c.editing = rec.RecordID()
		c.fields = rec.Input()
	}
	c.errMsg = ""
	c.state = StateOpen
	return nil
}

// Edit changes field values while the dialog is open.
func (c *Controller[I]) Edit(fn func(in *I)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateSubmitting:
		return ErrSubmitInFlight
	}
	fn(&c.fields)
	return nil
}

// Close discards the dialog and its values.
func (c *Controller[I]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	c.reset()
	return nil
}

// Submit validates the fields and performs one Create or Update. On success
// the form is reset and closed, then the success hook and refresh run. On
// failure the values are kept and the dialog stays open for a retry.
func (c *Controller[I]) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	in, id := c.fields, c.editing
	if err := model.Validate.Struct(in); err != nil {
		c.errMsg = ErrValidation.Error()
		c.state = StateFailed
		c.mu.Unlock()
		return ErrValidation
	}
	c.state = StateSubmitting
	c.errMsg = ""
	c.mu.Unlock()

	if c.busy != nil {
		c.busy(true)
	}
	var err error
	if id == "" {
		err = c.writer.Create(ctx, in)
	} else {
		err = c.writer.Update(ctx, id, in)
	}
	if c.busy != nil {
		c.busy(false)
	}

	c.mu.Lock()
	if err != nil {
		c.errMsg = message(err)
		c.state = StateFailed
		c.mu.Unlock()
		return fmt.Errorf("submit: %w", err)
	}
	c.reset()
	c.mu.Unlock()

	if c.onSuccess != nil {
		c.onSuccess()
	}
	if c.refresh != nil {
		if err := c.refresh(ctx); err != nil {
			log.Printf("Refresh after submit failed: %v", err)
		}
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Controller[I]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fields returns a copy of the current values.
func (c *Controller[I]) Fields() I {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Editing returns the id of the record being edited. ok is false in create mode.
func (c *Controller[I]) Editing() (id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing, c.editing != ""
}

// ErrorMessage is the message to show after a failed submit, or "".
func (c *Controller[I]) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// reset must be called with c.mu held.
func (c *Controller[I]) reset() {
	c.fields = c.defaults()
	c.editing = ""
	c.errMsg = ""
	c.state = StateClosed
}

func message(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericFailure
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
