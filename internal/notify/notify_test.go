package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	name     string
	err      error
	messages []string
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Send(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return s.err
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	t.Parallel()

	first := &stubSink{name: "first"}
	second := &stubSink{name: "second"}
	fanout := NewFanout(logr.Discard(), first, second)

	require.NoError(t, fanout.Send(context.Background(), "node-1 deleted"))
	assert.Equal(t, []string{"node-1 deleted"}, first.messages)
	assert.Equal(t, []string{"node-1 deleted"}, second.messages)
}

func TestFanoutSwallowsSinkErrors(t *testing.T) {
	t.Parallel()

	failing := &stubSink{name: "failing", err: errors.New("webhook down")}
	healthy := &stubSink{name: "healthy"}
	fanout := NewFanout(logr.Discard(), failing, healthy)

	require.NoError(t, fanout.Send(context.Background(), "hello"))
	// The failing sink must not prevent delivery to the rest.
	assert.Equal(t, []string{"hello"}, healthy.messages)
}

func TestFanoutEmpty(t *testing.T) {
	t.Parallel()
	require.NoError(t, NewFanout(logr.Discard()).Send(context.Background(), "hello"))
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	sink := NewLog(logr.Discard())
	assert.Equal(t, "log", sink.Name())
	require.NoError(t, sink.Send(context.Background(), "hello"))
}
