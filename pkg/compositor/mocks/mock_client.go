// Package mocks provides a scripted compositor for tests.
package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/grovetools/layman/pkg/compositor"
	"github.com/grovetools/layman/pkg/tree"
)

// MockClient is a mock implementation of compositor.Conn for testing. It
// serves a copy of Root on every Tree call and records every command.
type MockClient struct {
	mu sync.Mutex

	Root     *tree.Node
	Commands []string

	TreeFunc      func(ctx context.Context) (*tree.Node, error)
	CommandFunc   func(ctx context.Context, cmd string) ([]compositor.Result, error)
	SubscribeFunc func(ctx context.Context, types ...compositor.EventType) (<-chan compositor.Event, error)

	TreeCalls int
}

// NewMockClient returns a client serving root.
func NewMockClient(root *tree.Node) *MockClient {
	return &MockClient{Root: root}
}

// Tree calls the mock function or returns a linked copy of Root.
func (m *MockClient) Tree(ctx context.Context) (*tree.Node, error) {
	m.mu.Lock()
	m.TreeCalls++
	fn := m.TreeFunc
	root := m.Root
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return Clone(root).Link(), nil
}

// Command records cmd and calls the mock function.
func (m *MockClient) Command(ctx context.Context, cmd string) ([]compositor.Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, cmd)
	fn := m.CommandFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, cmd)
	}
	return []compositor.Result{{Success: true}}, nil
}

// Subscribe calls the mock function or returns a channel closed on ctx.Done.
func (m *MockClient) Subscribe(ctx context.Context, types ...compositor.EventType) (<-chan compositor.Event, error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, types...)
	}
	ch := make(chan compositor.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// SetRoot swaps the served tree.
func (m *MockClient) SetRoot(root *tree.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Root = root
}

// Issued returns a copy of the recorded commands.
func (m *MockClient) Issued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Commands...)
}

// Reset forgets the recorded commands.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = nil
}

// CountContaining returns how many recorded commands contain substr.
func (m *MockClient) CountContaining(substr string) int {
	n := 0
	for _, c := range m.Issued() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}
