package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockCompleter implements Completer for testing.
type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

var _ Completer = (*mockCompleter)(nil)
