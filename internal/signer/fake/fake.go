// Package fake provides a scripted Signer for tests and offline runs.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
)

// Signer resolves signing attempts from a pre-programmed script
// instead of a wallet. When the script runs out, every further
// attempt resolves as Signed with an empty hash.
type Signer struct {
	// Delay is an artificial per-attempt resolution delay.
	Delay time.Duration

	mu     sync.Mutex
	script []signing.Outcome
	seen   []*txbuild.Descriptor
}

// New builds a Signer that plays back the given outcomes in order.
func New(script ...signing.Outcome) *Signer {
	return &Signer{script: script}
}

func (s *Signer) Sign(ctx context.Context, d *txbuild.Descriptor) signing.Outcome {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return signing.Failed(ctx.Err().Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, d)
	if len(s.seen) <= len(s.script) {
		return s.script[len(s.seen)-1]
	}
	return signing.Signed("")
}

// Seen returns the descriptors presented so far, in order.
func (s *Signer) Seen() []*txbuild.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*txbuild.Descriptor, len(s.seen))
	copy(out, s.seen)
	return out
}
