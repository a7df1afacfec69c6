package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the target name
// to confirm destructive operations.
type InteractiveApprover struct {
	input  io.Reader
	output io.Writer
}

// NewInteractiveApprover creates an approver reading from in and prompting on out.
// Nil arguments default to stdin and stderr.
func NewInteractiveApprover(in io.Reader, out io.Writer) fsedit.Approver {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &InteractiveApprover{input: in, output: out}
}

// RequestApproval prompts the user to type the target name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: '%s' already has entries\n", target)
	fmt.Fprintln(a.output, "Entries with the same path will be replaced by the imported files.")
	fmt.Fprintf(a.output, "\nTo confirm, type '%s' and press Enter: ", target)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == target {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with import...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match '%s'. Operation cancelled.\n", input, target)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ fsedit.Approver = (*InteractiveApprover)(nil)
