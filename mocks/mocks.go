/*
Package mocks provides testify/mock implementations of the supervisor and
reactor interfaces.

Example:

	func TestMyComponent(t *testing.T) {
		machine := mocks.NewMockFSM[string, string, string]()
		machine.On("Transition", "", "go").Return(reactor.Step[string, string]{}.Emit("bye")).Once()
		machine.On("Respond", "", mock.Anything).Once()

		r, err := reactor.New[string, string, string](machine)
		require.NoError(t, err)
		require.NoError(t, r.Send("go"))

		_, err = r.Join()
		require.NoError(t, err)
		machine.AssertExpectations(t)
	}
*/
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/robbyt/go-reactor/reactor"
)

const defaultDelay = 1 * time.Millisecond

// MockRunnable is a mock implementation of supervisor.Runnable with
// configurable delays to simulate work.
type MockRunnable struct {
	mock.Mock
	DelayRun  time.Duration // Delay before Run returns
	DelayStop time.Duration // Delay before Stop returns
}

// NewMockRunnable creates a new MockRunnable with default delays.
func NewMockRunnable() *MockRunnable {
	return &MockRunnable{
		DelayRun:  defaultDelay,
		DelayStop: defaultDelay,
	}
}

// Run sleeps for DelayRun and returns the mocked error.
func (m *MockRunnable) Run(ctx context.Context) error {
	time.Sleep(m.DelayRun)
	args := m.Called(ctx)
	return args.Error(0)
}

// Stop sleeps for DelayStop and records the call.
func (m *MockRunnable) Stop() {
	time.Sleep(m.DelayStop)
	m.Called()
}

// String returns "MockRunnable" unless mocked with On("String").
func (m *MockRunnable) String() string {
	for _, c := range m.ExpectedCalls {
		if c.Method == "String" {
			return m.Called().String(0)
		}
	}
	return "MockRunnable"
}

// MockStateableRunnable extends MockRunnable with supervisor.Stateable.
type MockStateableRunnable struct {
	*MockRunnable
}

// NewMockStateableRunnable creates a new MockStateableRunnable with default delays.
func NewMockStateableRunnable() *MockStateableRunnable {
	return &MockStateableRunnable{MockRunnable: NewMockRunnable()}
}

// GetState returns the mocked phase.
func (m *MockStateableRunnable) GetState() string {
	return m.Called().String(0)
}

// GetStateChan returns the mocked channel.
func (m *MockStateableRunnable) GetStateChan(ctx context.Context) <-chan string {
	args := m.Called(ctx)
	return args.Get(0).(chan string)
}

// MockShutdownSender extends MockRunnable with supervisor.ShutdownSender.
type MockShutdownSender struct {
	*MockRunnable
}

// NewMockShutdownSender creates a new MockShutdownSender with default delays.
func NewMockShutdownSender() *MockShutdownSender {
	return &MockShutdownSender{MockRunnable: NewMockRunnable()}
}

// GetShutdownTrigger returns the mocked trigger channel.
func (m *MockShutdownSender) GetShutdownTrigger() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(chan struct{})
}

// MockFSM is a mock implementation of reactor.FSM. Transition must be mocked
// to return a reactor.Step[S, R].
type MockFSM[E, S comparable, R any] struct {
	mock.Mock
}

// NewMockFSM creates a new MockFSM.
func NewMockFSM[E, S comparable, R any]() *MockFSM[E, S, R] {
	return &MockFSM[E, S, R]{}
}

// Transition returns the mocked step for (old, ev).
func (m *MockFSM[E, S, R]) Transition(old S, ev E) reactor.Step[S, R] {
	args := m.Called(old, ev)
	return args.Get(0).(reactor.Step[S, R])
}

// Respond records the call.
func (m *MockFSM[E, S, R]) Respond(old S, step reactor.Step[S, R]) {
	m.Called(old, step)
}
