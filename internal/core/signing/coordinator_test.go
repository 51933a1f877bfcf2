package signing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
)

// scriptedSigner returns pre-programmed outcomes in order and records
// which descriptors it was asked to sign.
type scriptedSigner struct {
	script    []Outcome
	seen      []*txbuild.Descriptor
	blockCtx  bool
	cancelled int
}

func (s *scriptedSigner) Sign(ctx context.Context, d *txbuild.Descriptor) Outcome {
	s.seen = append(s.seen, d)
	if s.blockCtx {
		<-ctx.Done()
		return Failed(ctx.Err().Error())
	}
	if len(s.seen) > len(s.script) {
		return Failed("script exhausted")
	}
	return s.script[len(s.seen)-1]
}

func (s *scriptedSigner) CancelPending() {
	s.cancelled++
}

func testDescriptors(n int) []txbuild.Descriptor {
	ds := make([]txbuild.Descriptor, n)
	for i := range ds {
		ds[i] = txbuild.Descriptor{
			Account:      "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
			Sell:         txbuild.TokenAmount{Currency: "DOG", Issuer: "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B", Value: "100000"},
			ReceiveDrops: 1_000_000,
			FeeDrops:     txbuild.BaseFeeDrops,
		}
	}
	return ds
}

func TestRunAllContinue(t *testing.T) {
	signer := &scriptedSigner{script: []Outcome{Signed("AAA"), Rejected(), Signed("BBB")}}
	c := NewCoordinator(signer, WithContinueFunc(func(int) bool { return true }))

	result, err := c.Run(context.Background(), testDescriptors(3))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.SignedCount)
	assert.Len(t, result.Outcomes, 3)
	assert.False(t, result.Aborted)
	assert.Equal(t, StateCompleted, c.State())
	assert.Equal(t, "AAA", result.Outcomes[0].TxHash)
	assert.Equal(t, StatusRejected, result.Outcomes[1].Status)
}

func TestRunAbortAfterRejection(t *testing.T) {
	signer := &scriptedSigner{script: []Outcome{Signed("AAA"), Rejected(), Signed("BBB")}}
	c := NewCoordinator(signer, WithContinueFunc(func(int) bool { return false }))

	result, err := c.Run(context.Background(), testDescriptors(3))
	require.NoError(t, err)

	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.SignedCount)
	assert.True(t, result.Aborted)
	assert.Equal(t, StateAborted, c.State())
	assert.Len(t, signer.seen, 2, "third descriptor must never reach the signer")
}

func TestRunDefaultPolicyAborts(t *testing.T) {
	signer := &scriptedSigner{script: []Outcome{Failed("gateway unreachable"), Signed("AAA")}}
	c := NewCoordinator(signer)

	result, err := c.Run(context.Background(), testDescriptors(2))
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.Len(t, signer.seen, 1)
}

func TestRunLastDescriptorFailureStillCompletes(t *testing.T) {
	signer := &scriptedSigner{script: []Outcome{Signed("AAA"), Rejected()}}
	continueAsked := false
	c := NewCoordinator(signer, WithContinueFunc(func(int) bool {
		continueAsked = true
		return false
	}))

	result, err := c.Run(context.Background(), testDescriptors(2))
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, StateCompleted, c.State())
	assert.Len(t, result.Outcomes, 2)
	assert.False(t, continueAsked, "nothing remains after the last descriptor")
}

func TestRunAttemptTimeout(t *testing.T) {
	signer := &scriptedSigner{blockCtx: true}
	var failedIndex int
	c := NewCoordinator(signer,
		WithAttemptTimeout(20*time.Millisecond),
		WithContinueFunc(func(i int) bool {
			failedIndex = i
			return false
		}))

	result, err := c.Run(context.Background(), testDescriptors(2))
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusFailed, result.Outcomes[0].Status)
	assert.Equal(t, "timeout", result.Outcomes[0].Reason)
	assert.Equal(t, 0, failedIndex)
	assert.Equal(t, 1, signer.cancelled, "pending wallet request must be torn down")
	assert.True(t, result.Aborted)
}

func TestRunCancellation(t *testing.T) {
	signer := &scriptedSigner{blockCtx: true}
	c := NewCoordinator(signer)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result, err := c.Run(ctx, testDescriptors(3))
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, result.Aborted)
	assert.Equal(t, StateAborted, c.State())
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, StatusFailed, result.Outcomes[0].Status)
	assert.Len(t, signer.seen, 1)
}

func TestRunEmpty(t *testing.T) {
	c := NewCoordinator(&scriptedSigner{})
	_, err := c.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDescriptors)
}

func TestRunSessionEvents(t *testing.T) {
	signer := &scriptedSigner{script: []Outcome{Signed(""), Signed("")}}
	var progress [][2]int
	var statuses []string
	session := &Session{
		Progress:      func(cur, total int) { progress = append(progress, [2]int{cur, total}) },
		StatusChanged: func(msg string) { statuses = append(statuses, msg) },
	}
	c := NewCoordinator(signer, WithSession(session))

	_, err := c.Run(context.Background(), testDescriptors(2))
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)
	assert.NotEmpty(t, statuses)
}

func TestSessionNilSafe(t *testing.T) {
	var s *Session
	assert.NotPanics(t, func() {
		s.EmitQR("url", "link")
		s.EmitStatus("msg")
		s.EmitProgress(1, 2)
	})
}
