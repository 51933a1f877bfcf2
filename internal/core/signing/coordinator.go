// Package signing drives a wallet signer over a sequence of offer
// descriptors one at a time, collecting per-descriptor outcomes and
// letting the caller decide whether a failed rung stops the run.
package signing

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
)

// Signer resolves one descriptor into an outcome. Sign blocks until
// the wallet approves, rejects, or errors, or until ctx is done. A
// context-aware implementation returns promptly on cancellation.
type Signer interface {
	Sign(ctx context.Context, d *txbuild.Descriptor) Outcome
}

// Canceler is an optional signer capability. When a run is cancelled
// or an attempt times out, the coordinator calls CancelPending so the
// signer can tear down its pending wallet request (close the QR
// payload) instead of leaving it dangling.
type Canceler interface {
	CancelPending()
}

// ContinueFunc is consulted after a Rejected or Failed outcome when
// descriptors remain. index is the zero-based submission index of the
// failed descriptor. Returning false aborts the run.
type ContinueFunc func(index int) bool

// Session carries the presentation callbacks for a signing run. All
// fields are optional; a nil Session is valid.
type Session struct {
	// QRReady fires when a signer has a QR code and deep link for the
	// current descriptor.
	QRReady func(qrURL, deepLink string)
	// StatusChanged fires on human-readable progress messages.
	StatusChanged func(msg string)
	// Progress fires before each signing attempt with the 1-based
	// position and the total count.
	Progress func(current, total int)
}

func (s *Session) EmitQR(qrURL, deepLink string) {
	if s != nil && s.QRReady != nil {
		s.QRReady(qrURL, deepLink)
	}
}

func (s *Session) EmitStatus(msg string) {
	if s != nil && s.StatusChanged != nil {
		s.StatusChanged(msg)
	}
}

func (s *Session) EmitProgress(current, total int) {
	if s != nil && s.Progress != nil {
		s.Progress(current, total)
	}
}

// State of a coordinator across a run's lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ErrNoDescriptors is returned by Run when given an empty sequence.
var ErrNoDescriptors = errors.New("signing: no descriptors to sign")

// Coordinator runs signing batches. A wallet session can only handle
// one interaction at a time, so exactly one Sign call is ever in
// flight; Run is not safe for concurrent use on the same wallet
// session, which is a caller precondition rather than something the
// coordinator enforces.
type Coordinator struct {
	signer         Signer
	continueFunc   ContinueFunc
	session        *Session
	attemptTimeout time.Duration
	interSignDelay time.Duration
	logger         *zap.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithContinueFunc sets the continuation policy consulted after a
// non-signed outcome. Without one, any rejection or failure with
// descriptors remaining aborts the run.
func WithContinueFunc(fn ContinueFunc) Option {
	return func(c *Coordinator) { c.continueFunc = fn }
}

// WithSession sets the presentation callbacks for the run.
func WithSession(s *Session) Option {
	return func(c *Coordinator) { c.session = s }
}

// WithAttemptTimeout bounds each individual signing attempt. Zero
// means no per-attempt bound beyond the run context.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.attemptTimeout = d }
}

// WithInterSignDelay inserts a pause between a signed descriptor and
// the next attempt, a throttle so the wallet app is not immediately
// re-prompted. Zero disables it.
func WithInterSignDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.interSignDelay = d }
}

// WithLogger sets the structured logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator builds a coordinator around the given signer.
func NewCoordinator(signer Signer, opts ...Option) *Coordinator {
	c := &Coordinator{
		signer: signer,
		state:  StateIdle,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// State reports the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run signs the descriptors in order and returns the batch result.
// The result is complete for every path out of the run: a cancelled
// or aborted run still carries every outcome recorded so far. The
// returned error is non-nil only when the run context was cancelled;
// rejections and per-descriptor failures are outcomes, not errors.
func (c *Coordinator) Run(ctx context.Context, descriptors []txbuild.Descriptor) (BatchResult, error) {
	result := BatchResult{Requested: len(descriptors)}
	if len(descriptors) == 0 {
		return result, ErrNoDescriptors
	}

	c.setState(StateRunning)
	total := len(descriptors)

	for i := range descriptors {
		c.session.EmitProgress(i+1, total)
		c.logger.Info("signing descriptor",
			zap.Int("position", i+1),
			zap.Int("total", total))

		outcome, cancelled := c.signOne(ctx, &descriptors[i])
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Status == StatusSigned {
			result.SignedCount++
		}

		if cancelled {
			c.logger.Warn("signing run cancelled", zap.Int("position", i+1))
			result.Aborted = true
			c.setState(StateAborted)
			return result, ctx.Err()
		}

		last := i == total-1
		switch outcome.Status {
		case StatusSigned:
			c.session.EmitStatus("transaction signed")
			if !last && c.interSignDelay > 0 {
				select {
				case <-time.After(c.interSignDelay):
				case <-ctx.Done():
					result.Aborted = true
					c.setState(StateAborted)
					return result, ctx.Err()
				}
			}
		case StatusRejected, StatusFailed:
			c.logger.Warn("descriptor not signed",
				zap.Int("position", i+1),
				zap.Stringer("status", outcome.Status),
				zap.String("reason", outcome.Reason))
			if last {
				// Nothing left to continue into.
				break
			}
			if c.continueFunc == nil || !c.continueFunc(i) {
				c.session.EmitStatus("run aborted")
				result.Aborted = true
				c.setState(StateAborted)
				return result, nil
			}
		}
	}

	c.setState(StateCompleted)
	c.logger.Info("signing run completed",
		zap.Int("signed", result.SignedCount),
		zap.Int("requested", result.Requested))
	return result, nil
}

// signOne performs a single bounded signing attempt. It never
// abandons an in-flight Sign call: on timeout or cancellation it
// invokes the signer's cancel hook when available and then waits for
// the call to return before reporting.
func (c *Coordinator) signOne(ctx context.Context, d *txbuild.Descriptor) (outcome Outcome, cancelled bool) {
	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	done := make(chan Outcome, 1)
	go func() {
		done <- c.signer.Sign(attemptCtx, d)
	}()

	select {
	case out := <-done:
		if ctx.Err() != nil {
			return out, true
		}
		return out, false
	case <-attemptCtx.Done():
		if canceler, ok := c.signer.(Canceler); ok {
			canceler.CancelPending()
		}
		<-done
		if ctx.Err() != nil {
			return Failed("cancelled"), true
		}
		return Failed("timeout"), false
	}
}
