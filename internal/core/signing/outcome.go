package signing

import "fmt"

// Status is the resolution of one signing attempt.
type Status int

const (
	StatusSigned Status = iota
	StatusRejected
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSigned:
		return "signed"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of signing a single descriptor. TxHash is set
// only for StatusSigned (and may still be empty if the wallet gateway
// does not report it); Reason is set only for StatusFailed.
type Outcome struct {
	Status Status
	TxHash string
	Reason string
}

// Signed marks a descriptor as approved and signed by the wallet.
func Signed(txHash string) Outcome {
	return Outcome{Status: StatusSigned, TxHash: txHash}
}

// Rejected marks a descriptor the user declined in the wallet.
func Rejected() Outcome {
	return Outcome{Status: StatusRejected}
}

// Failed marks a descriptor whose signing attempt errored out.
func Failed(reason string) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason}
}

// Failedf is Failed with formatting.
func Failedf(format string, args ...any) Outcome {
	return Failed(fmt.Sprintf(format, args...))
}

// BatchResult summarizes a finished signing run. Outcomes holds one
// entry per descriptor actually presented to the signer, in submission
// order; descriptors never reached (after an abort) have no entry.
type BatchResult struct {
	Requested   int
	SignedCount int
	Outcomes    []Outcome
	Aborted     bool
}
