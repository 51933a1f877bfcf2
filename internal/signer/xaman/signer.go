package xaman

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
)

// DefaultPollInterval is the payload-status polling cadence when the
// status websocket is unavailable.
const DefaultPollInterval = 5 * time.Second

// Signer signs descriptors through the wallet gateway. Each Sign call
// creates a payload, surfaces the QR code and deep link through the
// session, then waits for the user to resolve it in the wallet app.
// Resolution is watched over the payload's status websocket, falling
// back to HTTP polling when the websocket cannot be reached.
type Signer struct {
	client       *Client
	session      *signing.Session
	pollInterval time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	pending context.CancelFunc
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithSession wires the presentation callbacks the signer emits QR
// references and status messages through.
func WithSession(s *signing.Session) SignerOption {
	return func(x *Signer) { x.session = s }
}

// WithPollInterval overrides the HTTP polling cadence.
func WithPollInterval(d time.Duration) SignerOption {
	return func(x *Signer) { x.pollInterval = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) SignerOption {
	return func(x *Signer) { x.logger = l }
}

// NewSigner builds a gateway-backed signer.
func NewSigner(client *Client, opts ...SignerOption) *Signer {
	s := &Signer{
		client:       client,
		pollInterval: DefaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Sign implements signing.Signer.
func (s *Signer) Sign(ctx context.Context, d *txbuild.Descriptor) signing.Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.pending = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
	}()

	payload, err := s.client.CreatePayload(ctx, &PayloadRequest{TxJSON: d.TxJSON()})
	if err != nil {
		return signing.Failedf("create payload: %v", err)
	}
	s.logger.Info("payload created", zap.String("uuid", payload.UUID))
	s.session.EmitQR(payload.Refs.QRPNG, payload.Next.Always)
	s.session.EmitStatus("scan the QR code or open the deep link in the wallet app")

	return s.await(ctx, payload)
}

// CancelPending implements signing.Canceler: it unblocks the
// in-flight Sign call so the coordinator never leaves a QR session
// dangling.
func (s *Signer) CancelPending() {
	s.mu.Lock()
	cancel := s.pending
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Signer) await(ctx context.Context, payload *CreatedPayload) signing.Outcome {
	if payload.Refs.WebsocketStatus != "" {
		outcome, ok := s.awaitWebsocket(ctx, payload)
		if ok {
			return outcome
		}
		s.logger.Warn("status websocket unavailable, falling back to polling",
			zap.String("uuid", payload.UUID))
	}
	return s.awaitPolling(ctx, payload.UUID)
}

// statusEvent is a message on the payload's status websocket. The
// stream interleaves these with unrelated events (opened, scanned),
// so fields are pointers to tell "absent" from "false".
type statusEvent struct {
	Signed  *bool `json:"signed"`
	Expired *bool `json:"expired"`
}

// awaitWebsocket watches the payload's status stream. ok=false means
// the websocket could not deliver a verdict and the caller should
// poll instead.
func (s *Signer) awaitWebsocket(ctx context.Context, payload *CreatedPayload) (signing.Outcome, bool) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, payload.Refs.WebsocketStatus, nil)
	if err != nil {
		if ctx.Err() != nil {
			return signing.Failed("cancelled"), true
		}
		return signing.Outcome{}, false
	}
	defer conn.Close()

	events := make(chan statusEvent)
	readErr := make(chan error, 1)
	go func() {
		for {
			var raw json.RawMessage
			if err := conn.ReadJSON(&raw); err != nil {
				readErr <- err
				return
			}
			var ev statusEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				continue
			}
			if ev.Signed == nil && ev.Expired == nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// Unblocks the reader goroutine.
			conn.Close()
			return signing.Failed("cancelled"), true
		case <-readErr:
			return signing.Outcome{}, false
		case ev := <-events:
			switch {
			case ev.Signed != nil && *ev.Signed:
				return s.resolveSigned(payload.UUID), true
			case ev.Signed != nil:
				return signing.Rejected(), true
			case ev.Expired != nil && *ev.Expired:
				return signing.Failed("payload expired"), true
			}
		}
	}
}

func (s *Signer) awaitPolling(ctx context.Context, uuid string) signing.Outcome {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return signing.Failed("cancelled")
		case <-ticker.C:
			status, err := s.client.PayloadStatus(ctx, uuid)
			if err != nil {
				if ctx.Err() != nil {
					return signing.Failed("cancelled")
				}
				// Transient gateway errors do not end the wait.
				s.logger.Warn("payload status poll failed", zap.String("uuid", uuid), zap.Error(err))
				continue
			}
			if status.Meta.Expired {
				return signing.Failed("payload expired")
			}
			if !status.Meta.Resolved {
				continue
			}
			if status.Meta.Signed {
				return signing.Signed(status.Response.TxID)
			}
			return signing.Rejected()
		}
	}
}

// resolveSigned fetches the final payload status after a signed event
// to recover the transaction hash. A fetch failure still counts as
// signed; the hash is informational.
func (s *Signer) resolveSigned(uuid string) signing.Outcome {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	status, err := s.client.PayloadStatus(ctx, uuid)
	if err != nil {
		s.logger.Warn("signed payload status fetch failed", zap.String("uuid", uuid), zap.Error(err))
		return signing.Signed("")
	}
	return signing.Signed(status.Response.TxID)
}
