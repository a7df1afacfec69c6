package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after the countdown,
// used when the --force flag is provided.
type ForcedApprover struct {
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a ForcedApprover writing its countdown to out
// (stderr when nil).
func NewForcedApprover(out io.Writer) fsedit.Approver {
	if out == nil {
		out = os.Stderr
	}
	return &ForcedApprover{output: out, sleepFn: time.Sleep}
}

// RequestApproval displays a countdown and automatically approves after the countdown.
func (a *ForcedApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  Replacing entries of '%s' (--force)\n", target)

	countdownSeconds := int(fsedit.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rImporting in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with import...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ fsedit.Approver = (*ForcedApprover)(nil)
