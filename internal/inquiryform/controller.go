package inquiryform

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
	"github.com/wolfman30/vendor-inquiry/internal/inquiryclient"
	"github.com/wolfman30/vendor-inquiry/internal/observability/metrics"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

// DefaultResetDelay is how long the confirmation stays up after a successful submission.
const DefaultResetDelay = 3 * time.Second

var (
	// ErrSubmitUnavailable is returned while a submission is in flight or its confirmation is showing.
	ErrSubmitUnavailable = errors.New("inquiryform: submit unavailable")

	// ErrDisposed is returned once the controller has been released.
	ErrDisposed = errors.New("inquiryform: controller disposed")
)

// Submitter sends a draft to the intake endpoint.
type Submitter interface {
	Submit(ctx context.Context, draft inquiry.Draft) (*inquiryclient.Response, error)
}

// Outcome describes a successful submission.
type Outcome struct {
	Response *inquiryclient.Response
	Message  string
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets where validation and failure alerts go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithOnClose registers the embedding context's close callback.
func WithOnClose(fn func()) Option {
	return func(c *Controller) { c.onClose = fn }
}

// WithResetDelay overrides how long the confirmation is displayed.
func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.resetDelay = d
		}
	}
}

// WithListener registers a callback invoked with a fresh snapshot after every change.
// The listener runs while the controller is locked and must not call back into it.
func WithListener(fn func(Snapshot)) Option {
	return func(c *Controller) { c.listener = fn }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *metrics.FormMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns one inquiry draft and drives it through
// Editing -> Submitting -> Submitted -> Editing.
type Controller struct {
	submitter  Submitter
	notifier   Notifier
	onClose    func()
	listener   func(Snapshot)
	logger     *logging.Logger
	metrics    *metrics.FormMetrics
	resetDelay time.Duration

	mu       sync.Mutex
	state    State
	draft    inquiry.Draft
	message  string
	timer    *time.Timer
	resetGen uint64
	disposed bool
}

// New creates a controller in the Editing state with an empty draft.
func New(submitter Submitter, opts ...Option) *Controller {
	if submitter == nil {
		panic("inquiryform: submitter required")
	}
	c := &Controller{
		submitter:  submitter,
		notifier:   discardNotifier{},
		logger:     logging.Default(),
		resetDelay: DefaultResetDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Component("inquiryform")
	return c
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// UpdateField replaces exactly one field of the draft. No validation happens here.
func (c *Controller) UpdateField(field inquiry.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	next, err := c.draft.With(field, value)
	if err != nil {
		return err
	}
	c.draft = next
	c.emitLocked()
	return nil
}

// Submit validates the draft and, if complete, posts it once.
//
// On validation failure no request is made. On any request failure the draft
// is left untouched so the user can retry. On success the confirmation is shown
// and the reset timer is armed.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return Outcome{}, ErrDisposed
	}
	if c.state != StateEditing {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitUnavailable
	}
	draft := c.draft
	if err := draft.CheckRequired(); err != nil {
		c.mu.Unlock()
		c.metrics.ObserveSubmission(metrics.OutcomeValidation)
		c.notifier.Notify(inquiry.MessageMissingFields)
		return Outcome{}, err
	}
	c.state = StateSubmitting
	c.emitLocked()
	c.mu.Unlock()

	resp, err := c.submitter.Submit(ctx, draft)

	c.mu.Lock()
	if err != nil {
		c.state = StateEditing
		c.emitLocked()
		c.mu.Unlock()
		c.reportFailure(err)
		return Outcome{}, err
	}

	message := inquiry.ConfirmationMessage(draft.Name)
	c.state = StateSubmitted
	c.message = message
	if !c.disposed {
		c.resetGen++
		gen := c.resetGen
		c.timer = time.AfterFunc(c.resetDelay, func() { c.completeReset(gen) })
	}
	c.emitLocked()
	c.mu.Unlock()

	c.metrics.ObserveSubmission(metrics.OutcomeSuccess)
	c.logger.Info("inquiry submitted", "category", draft.Category, "status", resp.StatusCode)
	return Outcome{Response: resp, Message: message}, nil
}

// Dismiss is the user closing the form. The close callback runs immediately.
// If a confirmation is showing, its pending reset is performed now instead of later.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	if c.state == StateSubmitted {
		c.stopTimerLocked()
		c.resetLocked()
		c.emitLocked()
	}
	c.mu.Unlock()
	c.close()
}

// Dispose releases the controller. A pending reset is cancelled and the close
// callback is not invoked. Safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.disposed = true
}

func (c *Controller) completeReset(gen uint64) {
	c.mu.Lock()
	if c.disposed || gen != c.resetGen || c.state != StateSubmitted {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.resetLocked()
	c.emitLocked()
	c.mu.Unlock()
	c.close()
}

func (c *Controller) reportFailure(err error) {
	var appErr *inquiry.ApplicationError
	if errors.As(err, &appErr) {
		c.metrics.ObserveSubmission(metrics.OutcomeApplication)
		c.logger.Warn("inquiry rejected", "status", appErr.StatusCode)
	} else {
		c.metrics.ObserveSubmission(metrics.OutcomeTransport)
		c.logger.Error("error submitting inquiry", "error", err)
	}
	c.notifier.Notify(inquiry.UserMessage(err))
}

func (c *Controller) close() {
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// Invalidate a callback that already fired and is waiting on the lock.
	c.resetGen++
}

func (c *Controller) resetLocked() {
	c.draft = inquiry.Draft{}
	c.state = StateEditing
	c.message = ""
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Draft: c.draft, Message: c.message}
}

func (c *Controller) emitLocked() {
	if c.listener != nil {
		c.listener(c.snapshotLocked())
	}
}
