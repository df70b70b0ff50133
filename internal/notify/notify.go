// Package notify delivers reaper outcome messages to outbound sinks.
//
// Sinks are constructed explicitly at startup and combined with Fanout; there
// is no runtime registration. Delivery is best-effort: failures are logged
// and counted, never propagated to the orchestrator.
package notify

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/nodereaper/nodereaper/internal/metrics"
)

// Sink delivers a single outcome message.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	Send(ctx context.Context, message string) error
}

// Fanout sends each message to a fixed list of sinks, swallowing per-sink
// errors.
type Fanout struct {
	sinks []Sink
	log   logr.Logger
}

// NewFanout builds a Fanout over the given sinks.
func NewFanout(log logr.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

// Name implements Sink.
func (f *Fanout) Name() string { return "fanout" }

// Send delivers the message to every sink. It always returns nil; individual
// delivery failures are logged and recorded as metrics.
func (f *Fanout) Send(ctx context.Context, message string) error {
	for _, sink := range f.sinks {
		if err := sink.Send(ctx, message); err != nil {
			f.log.Error(err, "failed to send notification", "sink", sink.Name())
			metrics.RecordNotification(sink.Name(), "error")
			continue
		}
		metrics.RecordNotification(sink.Name(), "success")
	}
	return nil
}

// Log is a sink that writes messages to the logger. Used as the fallback when
// no webhook is configured so outcomes stay visible.
type Log struct {
	log logr.Logger
}

// NewLog builds a logging sink.
func NewLog(log logr.Logger) *Log {
	return &Log{log: log}
}

// Name implements Sink.
func (l *Log) Name() string { return "log" }

// Send implements Sink.
func (l *Log) Send(_ context.Context, message string) error {
	l.log.Info("notification", "message", message)
	return nil
}
