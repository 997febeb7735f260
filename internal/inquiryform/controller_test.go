package inquiryform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
	"github.com/wolfman30/vendor-inquiry/internal/inquiryclient"
	"github.com/wolfman30/vendor-inquiry/internal/observability/metrics"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

const shortDelay = 20 * time.Millisecond

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []inquiry.Draft
	resp    *inquiryclient.Response
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, draft inquiry.Draft) (*inquiryclient.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, draft)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &inquiryclient.Response{StatusCode: http.StatusCreated, Body: map[string]any{}}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type harness struct {
	ctrl     *Controller
	sub      *fakeSubmitter
	notifier *recordingNotifier
	closes   *atomic.Int32

	mu     sync.Mutex
	states []State
}

func newHarness(t *testing.T, sub *fakeSubmitter, opts ...Option) *harness {
	t.Helper()
	h := &harness{sub: sub, notifier: &recordingNotifier{}, closes: &atomic.Int32{}}
	base := []Option{
		WithNotifier(h.notifier),
		WithOnClose(func() { h.closes.Add(1) }),
		WithLogger(logging.New("error")),
		WithResetDelay(shortDelay),
		WithListener(func(s Snapshot) {
			h.mu.Lock()
			h.states = append(h.states, s.State)
			h.mu.Unlock()
		}),
	}
	h.ctrl = New(sub, append(base, opts...)...)
	t.Cleanup(h.ctrl.Dispose)
	return h
}

// transitions collapses consecutive duplicate states.
func (h *harness) transitions() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []State
	for _, s := range h.states {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func ashaDraft() inquiry.Draft {
	return inquiry.Draft{
		Name:          "Asha",
		ContactNumber: "9990001111",
		Location:      "Pune",
		Category:      "Caterers",
		Requirement:   "Need catering for 200 guests",
	}
}

func fill(t *testing.T, c *Controller, d inquiry.Draft) {
	t.Helper()
	for _, f := range inquiry.Fields {
		v, err := d.Get(f)
		require.NoError(t, err)
		require.NoError(t, c.UpdateField(f, v))
	}
}

func TestNewControllerStartsEmpty(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.True(t, snap.Draft.IsEmpty())
	assert.Empty(t, snap.Message)
	assert.True(t, snap.CanSubmit())
	assert.Equal(t, "Submit Requirement", snap.SubmitLabel())
}

func TestSubmitRejectsEveryIncompleteDraft(t *testing.T) {
	for mask := 1; mask < 1<<len(inquiry.Fields); mask++ {
		t.Run(fmt.Sprintf("mask_%02d", mask), func(t *testing.T) {
			sub := &fakeSubmitter{}
			h := newHarness(t, sub)
			d := ashaDraft()
			for i, f := range inquiry.Fields {
				if mask&(1<<i) != 0 {
					d, _ = d.With(f, "")
				}
			}
			fill(t, h.ctrl, d)

			_, err := h.ctrl.Submit(context.Background())

			require.ErrorIs(t, err, inquiry.ErrValidation)
			assert.Zero(t, sub.callCount(), "no request may be issued")
			assert.Equal(t, StateEditing, h.ctrl.Snapshot().State)
			assert.Equal(t, d, h.ctrl.Snapshot().Draft)
			assert.Equal(t, []string{inquiry.MessageMissingFields}, h.notifier.all())
			assert.NotContains(t, h.transitions(), StateSubmitting)
		})
	}
}

func TestSubmitSuccessShowsConfirmationThenResets(t *testing.T) {
	sub := &fakeSubmitter{}
	h := newHarness(t, sub)
	fill(t, h.ctrl, ashaDraft())

	outcome, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Thank you, Asha! We have received your inquiry.", outcome.Message)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateSubmitted, snap.State)
	assert.Equal(t, outcome.Message, snap.Message)
	assert.False(t, snap.CanSubmit())
	assert.Equal(t, []inquiry.Draft{ashaDraft()}, sub.calls)
	assert.Zero(t, h.closes.Load(), "close must wait for the reset timer")

	require.Eventually(t, func() bool {
		return h.ctrl.Snapshot().State == StateEditing
	}, time.Second, 5*time.Millisecond)

	snap = h.ctrl.Snapshot()
	assert.Equal(t, inquiry.Draft{}, snap.Draft)
	assert.Empty(t, snap.Message)
	assert.Equal(t, int32(1), h.closes.Load())
	assert.Equal(t, []State{StateEditing, StateSubmitting, StateSubmitted, StateEditing}, h.transitions())
	assert.Empty(t, h.notifier.all())

	time.Sleep(3 * shortDelay)
	assert.Equal(t, int32(1), h.closes.Load(), "close runs exactly once")
}

func TestSubmitApplicationFailureKeepsDraft(t *testing.T) {
	sub := &fakeSubmitter{err: &inquiry.ApplicationError{StatusCode: http.StatusInternalServerError}}
	h := newHarness(t, sub)
	fill(t, h.ctrl, ashaDraft())

	_, err := h.ctrl.Submit(context.Background())

	var appErr *inquiry.ApplicationError
	require.ErrorAs(t, err, &appErr)
	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.Equal(t, ashaDraft(), snap.Draft)
	assert.Empty(t, snap.Message)
	assert.Equal(t, []string{inquiry.MessageSubmissionFailed}, h.notifier.all())
	assert.Equal(t, []State{StateEditing, StateSubmitting, StateEditing}, h.transitions())

	time.Sleep(3 * shortDelay)
	assert.Zero(t, h.closes.Load())
}

func TestSubmitTransportFailureKeepsDraft(t *testing.T) {
	sub := &fakeSubmitter{err: &inquiry.TransportError{Err: errors.New("connection refused")}}
	h := newHarness(t, sub)
	fill(t, h.ctrl, ashaDraft())

	_, err := h.ctrl.Submit(context.Background())

	var tErr *inquiry.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, StateEditing, h.ctrl.Snapshot().State)
	assert.Equal(t, ashaDraft(), h.ctrl.Snapshot().Draft)
	assert.Equal(t, []string{inquiry.MessageTransportFailure}, h.notifier.all())

	time.Sleep(3 * shortDelay)
	assert.Zero(t, h.closes.Load())
}

func TestSubmitRetryAfterFailure(t *testing.T) {
	sub := &fakeSubmitter{err: &inquiry.TransportError{Err: errors.New("offline")}}
	h := newHarness(t, sub)
	fill(t, h.ctrl, ashaDraft())

	_, err := h.ctrl.Submit(context.Background())
	require.Error(t, err)

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()

	outcome, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, outcome.Message, "Asha")
	assert.Equal(t, []inquiry.Draft{ashaDraft(), ashaDraft()}, sub.calls, "retry sends the retained draft")
}

func TestSubmitUnavailableWhileInFlight(t *testing.T) {
	sub := &fakeSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, sub)
	fill(t, h.ctrl, ashaDraft())

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Submit(context.Background())
		done <- err
	}()
	<-sub.started

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateSubmitting, snap.State)
	assert.False(t, snap.CanSubmit())
	assert.Equal(t, "Submitting...", snap.SubmitLabel())

	_, err := h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitUnavailable)
	assert.NoError(t, h.ctrl.UpdateField(inquiry.FieldRequirement, "Need catering for 250 guests"),
		"fields stay editable while submitting")

	close(sub.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sub.callCount())
	assert.Equal(t, "Need catering for 200 guests", sub.calls[0].Requirement, "the request carries the snapshot")

	_, err = h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitUnavailable, "submit stays disabled while the confirmation shows")
}

func TestUpdateFieldNoCrossFieldInterference(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldContactNumber, "9990001111"))
	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldLocation, "Pune"))
	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldRequirement, "Mehndi for 30"))

	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldCategory, "Caterers"))
	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldName, "Asha"))

	assert.Equal(t, inquiry.Draft{
		Name:          "Asha",
		ContactNumber: "9990001111",
		Location:      "Pune",
		Category:      "Caterers",
		Requirement:   "Mehndi for 30",
	}, h.ctrl.Snapshot().Draft)
}

func TestUpdateFieldUnknownField(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	err := h.ctrl.UpdateField(inquiry.Field("email"), "a@b.c")
	assert.ErrorIs(t, err, inquiry.ErrUnknownField)
	assert.True(t, h.ctrl.Snapshot().Draft.IsEmpty())
}

func TestDismissWhileEditingClosesAndKeepsDraft(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	require.NoError(t, h.ctrl.UpdateField(inquiry.FieldName, "Asha"))

	h.ctrl.Dismiss()

	assert.Equal(t, int32(1), h.closes.Load())
	assert.Equal(t, "Asha", h.ctrl.Snapshot().Draft.Name)
}

func TestDismissDuringConfirmationClosesOnce(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{}, WithResetDelay(time.Hour))
	fill(t, h.ctrl, ashaDraft())
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	h.ctrl.Dismiss()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateEditing, snap.State)
	assert.True(t, snap.Draft.IsEmpty())
	assert.Equal(t, int32(1), h.closes.Load())
}

func TestDisposeCancelsPendingReset(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	fill(t, h.ctrl, ashaDraft())
	_, err := h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	h.ctrl.Dispose()
	h.ctrl.Dispose()
	time.Sleep(3 * shortDelay)

	assert.Zero(t, h.closes.Load(), "a disposed controller never calls back into its host")
	assert.Equal(t, StateSubmitted, h.ctrl.Snapshot().State)
	assert.ErrorIs(t, h.ctrl.UpdateField(inquiry.FieldName, "x"), ErrDisposed)
	_, err = h.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestSubmitRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, &fakeSubmitter{}, WithMetrics(metrics.NewFormMetrics(reg)))

	_, err := h.ctrl.Submit(context.Background())
	require.Error(t, err)
	fill(t, h.ctrl, ashaDraft())
	_, err = h.ctrl.Submit(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "vendor_inquiry_form_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per observed outcome")
}

func TestNewPanicsWithoutSubmitter(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func newHTTPSubmitter(t *testing.T, baseURL string) *inquiryclient.Client {
	t.Helper()
	client, err := inquiryclient.New(inquiryclient.Config{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}},
		Logger:     logging.New("error"),
	})
	require.NoError(t, err)
	return client
}

func TestControllerAgainstHTTPEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantState  State
		wantNotify []string
		wantCloses int32
	}{
		{
			name: "created",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"message":"Inquiry submitted successfully"}`))
			},
			wantState:  StateEditing,
			wantCloses: 1,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"failed to save inquiry"}`))
			},
			wantState:  StateEditing,
			wantNotify: []string{inquiry.MessageSubmissionFailed},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			},
			wantState:  StateEditing,
			wantNotify: []string{inquiry.MessageTransportFailure},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			notifier := &recordingNotifier{}
			var closes atomic.Int32
			ctrl := New(newHTTPSubmitter(t, server.URL),
				WithNotifier(notifier),
				WithOnClose(func() { closes.Add(1) }),
				WithResetDelay(shortDelay),
				WithLogger(logging.New("error")),
			)
			defer ctrl.Dispose()
			fill(t, ctrl, ashaDraft())

			_, _ = ctrl.Submit(context.Background())
			require.Eventually(t, func() bool {
				return ctrl.Snapshot().State == tt.wantState
			}, time.Second, 5*time.Millisecond)
			require.Eventually(t, func() bool {
				return closes.Load() == tt.wantCloses
			}, time.Second, 5*time.Millisecond)

			assert.Equal(t, tt.wantNotify, notifier.all())
			if tt.wantCloses == 0 {
				assert.Equal(t, ashaDraft(), ctrl.Snapshot().Draft)
			} else {
				assert.True(t, ctrl.Snapshot().Draft.IsEmpty())
			}
		})
	}
}

func TestControllerUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	notifier := &recordingNotifier{}
	ctrl := New(newHTTPSubmitter(t, url), WithNotifier(notifier), WithLogger(logging.New("error")))
	defer ctrl.Dispose()
	fill(t, ctrl, ashaDraft())

	_, err := ctrl.Submit(context.Background())

	var tErr *inquiry.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, ashaDraft(), ctrl.Snapshot().Draft)
	assert.Equal(t, []string{inquiry.MessageTransportFailure}, notifier.all())
}
