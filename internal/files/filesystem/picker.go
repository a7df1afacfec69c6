package filesystem

import (
	"context"
	"fmt"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// StaticPicker always picks the same path. An empty path cancels.
type StaticPicker string

// PickDirectory returns the configured path.
func (s StaticPicker) PickDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("pick directory: %w: %w", fsedit.ErrPickerCancelled, err)
	}
	if s == "" {
		return "", fmt.Errorf("no directory given: %w", fsedit.ErrPickerCancelled)
	}
	return string(s), nil
}
