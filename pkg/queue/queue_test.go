package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type TestProcessor struct {
	mu     sync.Mutex
	counts map[string]int

	failFor map[string]int
	err     error
	done    chan struct{}
	total   int
}

func newTestProcessor(total int, failFor map[string]int, err error) *TestProcessor {
	return &TestProcessor{
		counts:  map[string]int{},
		failFor: failFor,
		err:     err,
		done:    make(chan struct{}),
		total:   total,
	}
}

func (p *TestProcessor) Process(ctx context.Context, m Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[m.ID]++

	sum := 0
	for _, c := range p.counts {
		sum += c
	}
	if sum == p.total {
		close(p.done)
	}

	if p.counts[m.ID] <= p.failFor[m.ID] {
		return p.err
	}
	return nil
}

type TestMessager struct {
	mu   sync.Mutex
	errs []error
}

func (m *TestMessager) Notify(ctx context.Context, message string) error { return nil }

func (m *TestMessager) NotifyWarning(ctx context.Context, errorMessage error) error { return nil }

func (m *TestMessager) NotifyError(ctx context.Context, errorMessage error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errorMessage)
	return nil
}

func (m *TestMessager) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

func run(t *testing.T, q *Service, p *TestProcessor, messages ...Message) {
	t.Helper()

	q.retryDelay = time.Millisecond

	for _, m := range messages {
		require.NoError(t, q.Enqueue(m))
	}

	go func() {
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
			t.Error("timed out waiting for messages")
		}
		// let the last result be handled
		time.Sleep(20 * time.Millisecond)
		q.Close()
	}()

	require.NoError(t, q.Start(p))
}

func TestProcessMessages(t *testing.T) {
	expectedErr := errors.New("persist failed")

	tests := []struct {
		name     string
		failFor  map[string]int
		total    int
		notified int
	}{
		{"all succeed", map[string]int{}, 3, 0},
		{"retried then succeed", map[string]int{"b": 2}, 5, 0},
		{"retries exhausted", map[string]int{"b": 10}, 6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &TestMessager{}
			q := NewService("receipts", 3, 10, context.Background(), m)
			p := newTestProcessor(tt.total, tt.failFor, expectedErr)

			run(t, q, p, NewMessage("a", 1), NewMessage("b", 2), NewMessage("c", 3))

			require.Equal(t, 1, p.counts["a"])
			require.Equal(t, 1, p.counts["c"])
			require.Equal(t, tt.total-2, p.counts["b"])

			errs := m.Errors()
			require.Len(t, errs, tt.notified)
			for _, err := range errs {
				require.ErrorIs(t, err, expectedErr)
			}
		})
	}
}

func TestEnqueueFull(t *testing.T) {
	m := &TestMessager{}
	q := NewService("receipts", 0, 1, context.Background(), m)

	require.NoError(t, q.Enqueue(NewMessage("a", nil)))

	err := q.Enqueue(NewMessage("b", nil))
	require.ErrorIs(t, err, ErrQueueFull)
	require.True(t, strings.Contains(m.Errors()[0].Error(), "queue is full"))
}

func TestStartContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewService("receipts", 0, 1, ctx, nil)
	cancel()

	err := q.Start(newTestProcessor(0, nil, nil))
	require.ErrorIs(t, err, context.Canceled)
}
