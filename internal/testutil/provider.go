// Package testutil provides testing utilities and helpers shared by
// package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/SourceHealth/internal/providers/suggest"
)

// MockProvider is a mock implementation of suggest.Provider for testing.
type MockProvider struct {
	mock.Mock
	ProviderName string
}

// Name returns the configured provider name.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Suggest mocks the Suggest method.
func (m *MockProvider) Suggest(ctx context.Context, req suggest.Request) (*suggest.Reply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*suggest.Reply), args.Error(1)
}

// NewMockProvider creates a mock provider that answers every request
// with text. Override with On before the first call if needed.
func NewMockProvider(t *testing.T, text string, tokens int) *MockProvider {
	t.Helper()
	m := new(MockProvider)
	m.On("Suggest", mock.Anything, mock.Anything).
		Return(&suggest.Reply{Text: text, TokensUsed: tokens}, nil).
		Maybe()
	return m
}

// NewFailingProvider creates a mock provider whose every call fails.
func NewFailingProvider(t *testing.T, err error) *MockProvider {
	t.Helper()
	m := new(MockProvider)
	m.On("Suggest", mock.Anything, mock.Anything).Return(nil, err).Maybe()
	return m
}
