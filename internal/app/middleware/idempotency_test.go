package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basobas/internal/app/commands"
)

type countingBus struct {
	calls  int
	result any
	err    error
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	return b.result, b.err
}

type memoryStore struct {
	records map[string]IdempotencyRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]IdempotencyRecord)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

type testCommand struct {
	key string
}

func (c testCommand) Key() string            { return "test.command" }
func (c testCommand) IdempotencyKey() string { return c.key }
func (c testCommand) ResultPrototype() any   { return &testResult{} }

type testResult struct {
	Value string `json:"value"`
}

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	inner := &countingBus{result: &testResult{Value: "first"}}
	bus := ChainCommands(inner, Idempotency(newMemoryStore(), nil))

	first, err := bus.Dispatch(context.Background(), testCommand{key: "k-1"})
	require.NoError(t, err)
	second, err := bus.Dispatch(context.Background(), testCommand{key: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.(*testResult).Value, second.(*testResult).Value)
}

func TestIdempotencyReplaysStoredError(t *testing.T) {
	inner := &countingBus{err: errors.New("boom")}
	bus := ChainCommands(inner, Idempotency(newMemoryStore(), nil))

	_, err := bus.Dispatch(context.Background(), testCommand{key: "k-1"})
	require.Error(t, err)

	_, err = bus.Dispatch(context.Background(), testCommand{key: "k-1"})
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, inner.calls)
}

func TestIdempotencyDistinctKeysDispatchSeparately(t *testing.T) {
	inner := &countingBus{result: &testResult{Value: "ok"}}
	bus := ChainCommands(inner, Idempotency(newMemoryStore(), nil))

	_, err := bus.Dispatch(context.Background(), testCommand{key: "k-1"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), testCommand{key: "k-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	inner := &countingBus{result: &testResult{Value: "ok"}}
	bus := ChainCommands(inner, Idempotency(newMemoryStore(), nil))

	_, err := bus.Dispatch(context.Background(), testCommand{})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), testCommand{})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), plainCommand{})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}
