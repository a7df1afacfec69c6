package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

type errorReader struct {
	err error
}

func (r *errorReader) Read(p []byte) (int, error) {
	return 0, r.err
}

// blockingReader never returns until closed.
type blockingReader struct {
	done chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{done: make(chan struct{})}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.done
	return 0, io.EOF
}

func (r *blockingReader) Close() { close(r.done) }

func TestForcedApprover_ApprovesAfterCountdown(t *testing.T) {
	var output bytes.Buffer
	sleepCalls := 0

	approver := &ForcedApprover{
		output: &output,
		sleepFn: func(d time.Duration) {
			sleepCalls++
		},
	}

	approved, err := approver.RequestApproval(context.Background(), "fsedit_entries")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !approved {
		t.Fatal("Expected approval after countdown")
	}
	if sleepCalls != 3 {
		t.Errorf("Expected 3 sleep calls (one per second), got %d", sleepCalls)
	}

	out := output.String()
	if !strings.Contains(out, "fsedit_entries") {
		t.Errorf("Expected output to contain the target, got:\n%s", out)
	}
	if !strings.Contains(out, "Proceeding with import") {
		t.Errorf("Expected output to contain proceeding message, got:\n%s", out)
	}
}

func TestForcedApprover_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	approver := &ForcedApprover{output: io.Discard, sleepFn: func(time.Duration) {}}
	approved, err := approver.RequestApproval(ctx, "notes")
	if err == nil {
		t.Fatal("Expected context error")
	}
	if approved {
		t.Fatal("Expected denial on cancellation")
	}
}

func TestNewForcedApprover(t *testing.T) {
	fa, ok := NewForcedApprover(nil).(*ForcedApprover)
	if !ok {
		t.Fatal("Expected *ForcedApprover type")
	}
	if fa.output == nil || fa.sleepFn == nil {
		t.Error("Expected defaults for output and sleep function")
	}
}

func TestInteractiveApprover(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		approved bool
		output   string
	}{
		{"matching input", "notes\n", true, "Confirmed"},
		{"matching input without newline", "notes", true, "Confirmed"},
		{"surrounding whitespace", "  notes  \n", true, "Confirmed"},
		{"non-matching input", "wrong_name\n", false, "'wrong_name' does not match"},
		{"empty input", "\n", false, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			approver := &InteractiveApprover{input: strings.NewReader(tt.input), output: &output}

			approved, err := approver.RequestApproval(context.Background(), "notes")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if approved != tt.approved {
				t.Errorf("approved = %v, want %v", approved, tt.approved)
			}
			if !strings.Contains(output.String(), tt.output) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.output, output.String())
			}
		})
	}
}

func TestInteractiveApprover_ReadError(t *testing.T) {
	approver := &InteractiveApprover{
		input:  &errorReader{err: io.ErrUnexpectedEOF},
		output: io.Discard,
	}

	approved, err := approver.RequestApproval(context.Background(), "notes")
	if err == nil {
		t.Fatal("Expected error for read failure")
	}
	if approved {
		t.Fatal("Expected denial on read error")
	}
	if !strings.Contains(err.Error(), "failed to read input") {
		t.Errorf("Expected read error wrapper, got: %v", err)
	}
}

func TestInteractiveApprover_ContextCancellation(t *testing.T) {
	input := newBlockingReader()
	t.Cleanup(input.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	approver := &InteractiveApprover{input: input, output: io.Discard}
	approved, err := approver.RequestApproval(ctx, "notes")
	if err == nil {
		t.Fatal("Expected context error")
	}
	if approved {
		t.Fatal("Expected denial on cancellation")
	}
}

func TestNewInteractiveApprover(t *testing.T) {
	ia, ok := NewInteractiveApprover(nil, nil).(*InteractiveApprover)
	if !ok {
		t.Fatal("Expected *InteractiveApprover type")
	}
	if ia.input == nil || ia.output == nil {
		t.Error("Expected stdin and stderr defaults")
	}
}
