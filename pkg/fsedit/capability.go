package fsedit

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the two entry kinds a capability can grant access to.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// IsValid returns true if the Kind is a defined value.
func (k Kind) IsValid() bool {
	return k == KindFile || k == KindDirectory
}

// Capability is an opaque, provider-issued reference granting access to one
// filesystem entry. Its kind is fixed when the provider issues it.
//
// Capabilities are compared by identity only (see Same). The handle is private
// to the issuing provider and must not be interpreted by anyone else.
type Capability struct {
	id     uuid.UUID
	kind   Kind
	name   string
	handle any
}

// NewCapability issues a capability. Only providers should call this.
func NewCapability(kind Kind, name string, handle any) *Capability {
	return &Capability{
		id:     uuid.New(),
		kind:   kind,
		name:   name,
		handle: handle,
	}
}

// ID returns the identity of the capability.
func (c *Capability) ID() uuid.UUID {
	if c == nil {
		return uuid.Nil
	}
	return c.id
}

// Kind returns the kind of entry the capability grants access to.
func (c *Capability) Kind() Kind { return c.kind }

// Name returns the display name of the entry.
func (c *Capability) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Handle returns the provider-private handle.
func (c *Capability) Handle() any { return c.handle }

// IsDir reports whether the capability refers to a directory.
func (c *Capability) IsDir() bool { return c != nil && c.kind == KindDirectory }

// Same reports whether both capabilities are the same grant.
func (c *Capability) Same(other *Capability) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.id == other.id
}

func (c *Capability) String() string {
	if c == nil {
		return "<nil capability>"
	}
	return fmt.Sprintf("%s %q", c.kind, c.name)
}

// RequireKind returns an error wrapping ErrKindMismatch unless c is non-nil and of kind want.
func RequireKind(c *Capability, want Kind) error {
	if c == nil {
		return fmt.Errorf("nil capability, expected %s: %w", want, ErrKindMismatch)
	}
	if c.kind != want {
		return fmt.Errorf("%s is not a %s: %w", c, want, ErrKindMismatch)
	}
	return nil
}

// HandleAs extracts the provider handle as T after checking the capability kind.
func HandleAs[T any](c *Capability, want Kind) (T, error) {
	var zero T
	if err := RequireKind(c, want); err != nil {
		return zero, err
	}
	h, ok := c.handle.(T)
	if !ok {
		return zero, fmt.Errorf("%s was issued by another provider: %w", c, ErrKindMismatch)
	}
	return h, nil
}

// Child is one element of a directory enumeration.
type Child struct {
	Name       string
	Kind       Kind
	Capability *Capability
}
