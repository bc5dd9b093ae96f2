package sinks

import (
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
)

// LogSink writes failing verdicts to the structured logger. Useful for
// development and for piping findings into log aggregation.
type LogSink struct {
	log      *zap.Logger
	failures int
	total    int
}

// NewLogSink creates a log sink.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

// Initialize implements output.Sink.
func (s *LogSink) Initialize(cfg output.SinkConfig) error { return nil }

// WriteEntry logs every failing verdict of the group.
func (s *LogSink) WriteEntry(obj *object.Object, entries []*output.Entry) error {
	for _, e := range entries {
		s.total++
		if e.Result {
			continue
		}
		s.failures++
		fields := []zap.Field{
			zap.String("object", obj.Key()),
			zap.String("rule", e.RuleName),
			zap.String("category", e.Category),
			zap.String("severity", e.Severity.String()),
		}
		for _, item := range e.Items {
			if !item.Result {
				fields = append(fields, zap.String("failed_check", item.Message))
			}
		}
		s.log.Warn("rule failed", fields...)
	}
	return nil
}

// Finish logs the run summary.
func (s *LogSink) Finish() error {
	s.log.Info("analysis complete",
		zap.Int("verdicts", s.total),
		zap.Int("failures", s.failures))
	return nil
}
