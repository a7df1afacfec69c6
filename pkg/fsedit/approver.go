package fsedit

import "context"

// Approver confirms destructive operations, such as an import replacing
// existing entries of a backend table.
//
// Implementations:
//   - ForcedApprover: Shows a short countdown and automatically approves
//   - InteractiveApprover: Prompts the user to type the target name for confirmation
type Approver interface {
	// RequestApproval asks before entries of target are replaced.
	// It returns false, without error, when the user declines.
	RequestApproval(ctx context.Context, target string) (bool, error)
}
