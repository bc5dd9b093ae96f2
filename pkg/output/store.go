package output

import (
	"sort"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
)

// SinkConfig is the read-only configuration handed to every sink.
type SinkConfig struct {
	// Path is the output location.
	Path string

	// SchemaPath optionally references a report schema. Empty means no
	// schema reference is recorded.
	SchemaPath string

	// Properties lists property names to include per object. Empty means
	// all enabled properties. Names are matched against each object's
	// name-to-ID lookup.
	Properties []string
}

// Sink consumes grouped verdicts. Implementations live outside the core;
// the store drives the lifecycle: Initialize once before any write,
// WriteEntry any number of times, Finish exactly once, after which no
// further writes occur.
type Sink interface {
	Initialize(cfg SinkConfig) error
	WriteEntry(obj *object.Object, entries []*Entry) error
	Finish() error
}

// Store is the run-scoped verdict aggregator. It owns the registered
// sinks and dispatches grouped verdicts to each of them.
type Store struct {
	sinks    []Sink
	finished bool
	log      *zap.Logger
}

// NewStore creates a store.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log}
}

// AddSink registers and initializes a sink. Registration order is the
// dispatch and finish order.
func (s *Store) AddSink(sink Sink, cfg SinkConfig) error {
	if err := sink.Initialize(cfg); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "sink initialization failed")
	}
	s.sinks = append(s.sinks, sink)
	return nil
}

// FlushOutput groups the supplied verdicts by their owning object,
// orders groups by object key ascending, and hands each group to every
// registered sink once. Entries within a group keep their original
// rule-execution order.
func (s *Store) FlushOutput(entries []*Entry) error {
	if s.finished {
		return errors.New(errors.CodeSinkFinished, "flush after sinks were finished")
	}

	groups := make(map[*object.Object][]*Entry)
	order := make([]*object.Object, 0)
	for _, e := range entries {
		if _, seen := groups[e.Object]; !seen {
			order = append(order, e.Object)
		}
		groups[e.Object] = append(groups[e.Object], e)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].Key() < order[j].Key()
	})

	for _, obj := range order {
		group := groups[obj]
		for _, sink := range s.sinks {
			if err := sink.WriteEntry(obj, group); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "sink write failed").
					WithContext("object", obj.Key())
			}
		}
	}
	return nil
}

// FinishOutputWriters calls Finish on every sink exactly once, in
// registration order, after all flushing is complete.
func (s *Store) FinishOutputWriters() error {
	if s.finished {
		return nil
	}
	s.finished = true

	var merr errors.MultiError
	for _, sink := range s.sinks {
		if err := sink.Finish(); err != nil {
			s.log.Error("sink finish failed", zap.Error(err))
			merr.Append(err)
		}
	}
	return merr.ErrorOrNil()
}
