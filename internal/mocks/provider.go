package mocks

import (
	"context"
	"iter"

	"github.com/stretchr/testify/mock"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// MockProvider implements fsedit.Provider for testing across packages
type MockProvider struct {
	mock.Mock
}

var _ fsedit.Provider = (*MockProvider)(nil)

func (m *MockProvider) PickDirectory(ctx context.Context) (*fsedit.Capability, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fsedit.Capability), args.Error(1)
}

func (m *MockProvider) Children(ctx context.Context, dir *fsedit.Capability) iter.Seq2[fsedit.Child, error] {
	args := m.Called(ctx, dir)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context, *fsedit.Capability) iter.Seq2[fsedit.Child, error]); ok {
		return fn(ctx, dir)
	}

	if args.Get(0) == nil {
		return Seq()
	}
	return args.Get(0).(iter.Seq2[fsedit.Child, error])
}

func (m *MockProvider) ReadText(ctx context.Context, file *fsedit.Capability) (string, error) {
	args := m.Called(ctx, file)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(context.Context, *fsedit.Capability) string); ok {
		return fn(ctx, file), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockProvider) WriteText(ctx context.Context, file *fsedit.Capability, content string) error {
	args := m.Called(ctx, file, content)
	return args.Error(0)
}

func (m *MockProvider) DisplayName(c *fsedit.Capability) string {
	return c.Name()
}

func (m *MockProvider) Kind(c *fsedit.Capability) fsedit.Kind {
	return c.Kind()
}

// Seq returns an enumeration yielding children in order.
func Seq(children ...fsedit.Child) iter.Seq2[fsedit.Child, error] {
	return func(yield func(fsedit.Child, error) bool) {
		for _, c := range children {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// File returns a file child with a fresh capability.
func File(name string) fsedit.Child {
	return fsedit.Child{Name: name, Kind: fsedit.KindFile, Capability: fsedit.NewCapability(fsedit.KindFile, name, name)}
}

// Dir returns a directory child with a fresh capability.
func Dir(name string) fsedit.Child {
	return fsedit.Child{Name: name, Kind: fsedit.KindDirectory, Capability: fsedit.NewCapability(fsedit.KindDirectory, name, name)}
}
