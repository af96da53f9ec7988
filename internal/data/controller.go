package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"techform/internal/jsonlog"
	"techform/internal/validator"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrUnknownField     = errors.New("unknown field")
	ErrIndexOutOfRange  = errors.New("tech index out of range")
)

// Phase is the submission state of a Controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the phase name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// State is a read-only view of the controller for rendering.
type State struct {
	Values FormInput         `json:"values"`
	Errors map[string]string `json:"errors,omitempty"`
	Output string            `json:"output,omitempty"`
	Strong bool              `json:"strong"`
	Phase  Phase             `json:"phase"`
}

// Controller owns the in-progress form: raw field values, the dynamic tech list,
// the last validation errors and the last successful output.
//
// Mutations are serialized; Submit snapshots the latest committed values.
// At most one submission runs at a time.
type Controller struct {
	schema *Schema
	sink   Sink
	logger *jsonlog.Logger
	newID  func() string

	submitting atomic.Bool

	mu     sync.RWMutex
	values FormInput
	errors map[string]string
	output string
}

type Option func(*Controller)

// WithSink sets where validated submissions go. Defaults to NopSink.
func WithSink(sink Sink) Option {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithLogger sets the logger for submit outcomes. Defaults to a discarding logger.
func WithLogger(logger *jsonlog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithIDGenerator overrides the row identity generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newID = fn
	}
}

// NewController returns a controller with empty form values.
func NewController(schema *Schema, opts ...Option) *Controller {
	c := &Controller{
		schema: schema,
		sink:   NopSink{},
		logger: jsonlog.Discard(),
		newID:  uuid.NewString,
		values: FormInput{Techs: []TechInput{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetField stores a raw value at path. It does not validate.
// Accepted paths: name, email, password, techs.<i>.title, techs.<i>.knowledge.
func (c *Controller) SetField(path, value string) error {
	p, err := validator.ParsePath(path)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch p.Root() {
	case "name", "email", "password":
		if len(p) != 1 {
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		switch p.Root() {
		case "name":
			c.values.Name = value
		case "email":
			c.values.Email = value
		case "password":
			c.values.Password = value
		}
		return nil

	case "techs":
		if len(p) != 3 {
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		i, err := strconv.Atoi(p[1])
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		if i < 0 || i >= len(c.values.Techs) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		switch p.Leaf() {
		case "title":
			c.values.Techs[i].Title = value
		case "knowledge":
			c.values.Techs[i].Knowledge = RawNumber(value)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, path)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
}

// AddTech appends an empty row and returns its stable ID.
func (c *Controller) AddTech() string {
	id := c.newID()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.values.Techs = append(c.values.Techs, TechInput{
		ID:        id,
		Title:     "",
		Knowledge: "0",
	})
	return id
}

// RemoveTech deletes the row at index. Remaining rows keep their IDs.
func (c *Controller) RemoveTech(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.values.Techs) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	techs := make([]TechInput, 0, len(c.values.Techs)-1)
	techs = append(techs, c.values.Techs[:index]...)
	techs = append(techs, c.values.Techs[index+1:]...)
	c.values.Techs = techs
	return nil
}

// IndexOf returns the current position of the row with the given ID.
func (c *Controller) IndexOf(id string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, t := range c.values.Techs {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Values returns a copy of the current raw values.
func (c *Controller) Values() FormInput {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values.clone()
}

// PasswordStrength evaluates the current raw password. Advisory only.
func (c *Controller) PasswordStrength() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return IsStrongPassword(c.values.Password)
}

// Phase reports whether a submission is running.
func (c *Controller) Phase() Phase {
	if c.submitting.Load() {
		return PhaseValidating
	}
	return PhaseIdle
}

// Snapshot returns everything a renderer needs.
func (c *Controller) Snapshot() State {
	phase := c.Phase()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs map[string]string
	if len(c.errors) > 0 {
		errs = make(map[string]string, len(c.errors))
		for k, v := range c.errors {
			errs[k] = v
		}
	}

	return State{
		Values: c.values.clone(),
		Errors: errs,
		Output: c.output,
		Strong: IsStrongPassword(c.values.Password),
		Phase:  phase,
	}
}

// Submit validates the latest committed values. Failed validation stores the
// error mapping, keeps the last output and returns the Result with a nil error;
// the sink is not called. On success the errors are cleared, the sink receives
// the transformed values and the indented JSON serialization becomes the output.
// A concurrent call returns ErrSubmitInProgress.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return Result{}, ErrSubmitInProgress
	}
	defer c.submitting.Store(false)

	input := c.Values()
	res := c.schema.Validate(input)

	if !res.OK() {
		c.mu.Lock()
		c.errors = res.ErrorMap()
		c.mu.Unlock()

		c.logger.DebugWithContext(ctx, "form validation failed",
			"errors", len(res.Errors))
		return res, nil
	}

	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()

	if err := c.sink.Submit(ctx, res.Value); err != nil {
		return res, fmt.Errorf("submit form: %w", err)
	}

	out, err := json.MarshalIndent(res.Value, "", "  ")
	if err != nil {
		return res, fmt.Errorf("encode output: %w", err)
	}

	c.mu.Lock()
	c.output = string(out)
	c.mu.Unlock()

	c.logger.DebugWithContext(ctx, "form validated", "techs", len(res.Value.Techs))
	return res, nil
}
