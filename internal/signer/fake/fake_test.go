package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrpl-ladder/internal/core/signing"
	"github.com/LeJamon/xrpl-ladder/internal/core/txbuild"
)

func TestScriptPlayback(t *testing.T) {
	s := New(signing.Signed("AAA"), signing.Rejected())
	d := &txbuild.Descriptor{Account: "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"}

	assert.Equal(t, signing.StatusSigned, s.Sign(context.Background(), d).Status)
	assert.Equal(t, signing.StatusRejected, s.Sign(context.Background(), d).Status)

	// Past the end of the script everything signs.
	assert.Equal(t, signing.StatusSigned, s.Sign(context.Background(), d).Status)
	assert.Len(t, s.Seen(), 3)
}

func TestDrivesCoordinator(t *testing.T) {
	s := New(signing.Signed("AAA"), signing.Failed("boom"), signing.Signed("BBB"))
	c := signing.NewCoordinator(s, signing.WithContinueFunc(func(int) bool { return true }))

	result, err := c.Run(context.Background(), make([]txbuild.Descriptor, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, result.SignedCount)
	assert.False(t, result.Aborted)
	assert.Len(t, s.Seen(), 3)
}
