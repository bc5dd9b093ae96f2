// Package sinks provides the report writers consuming grouped verdicts:
// XML, XLSX, S3 upload, and console logging.
package sinks

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/loclint/loclint/internal/pool"
	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
)

// drainThreshold is the buffered size at which a chunk is handed to the
// async writer.
const drainThreshold = 64 * 1024

// XMLSink writes grouped verdicts as an XML report.
//
// Writes are buffered and drained asynchronously: the sink lock covers
// only "snapshot buffer, hand bytes off, reset" — the underlying file
// write may still be in flight while the next chunk is prepared. Chunks
// are strictly ordered at hand-off; completion is joined in Finish and
// any I/O failure surfaces there.
type XMLSink struct {
	cfg  output.SinkConfig
	file *os.File

	mu  sync.Mutex
	buf *pool.ByteBuffer

	bufs    *pool.BufferPool
	chunks  chan *pool.ByteBuffer
	done    chan struct{}
	wErr    error
	started bool
	closed  bool
}

// NewXMLSink creates an XML report sink.
func NewXMLSink() *XMLSink {
	return &XMLSink{bufs: pool.NewBufferPool(drainThreshold)}
}

// Initialize opens the report file and starts the writer.
func (s *XMLSink) Initialize(cfg output.SinkConfig) error {
	s.cfg = cfg

	f, err := os.Create(cfg.Path)
	if err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "cannot create report file").
			WithContext("path", cfg.Path)
	}
	s.file = f
	s.buf = s.bufs.Get()
	s.chunks = make(chan *pool.ByteBuffer, 4)
	s.done = make(chan struct{})
	s.started = true

	go s.writeLoop()

	s.buf.WriteString(xml.Header)
	if cfg.SchemaPath != "" {
		fmt.Fprintf(s.buf, "<report schema=%q>\n", cfg.SchemaPath)
	} else {
		s.buf.WriteString("<report>\n")
	}
	return nil
}

// WriteEntry renders one object group into the report.
func (s *XMLSink) WriteEntry(obj *object.Object, entries []*output.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return errors.New(errors.CodeSinkFinished, "write after finish")
	}

	fmt.Fprintf(s.buf, "  <object key=%q type=%q>\n", obj.Key(), obj.Type())
	s.renderProperties(obj)
	for _, e := range entries {
		fmt.Fprintf(s.buf, "    <verdict rule=%q category=%q result=%q severity=%q>\n",
			e.RuleName, e.Category, boolAttr(e.Result), e.Severity)
		for _, item := range e.Items {
			fmt.Fprintf(s.buf, "      <check result=%q severity=%q>%s</check>\n",
				boolAttr(item.Result), item.Severity, escape(item.Message))
		}
		s.buf.WriteString("    </verdict>\n")
	}
	s.buf.WriteString("  </object>\n")

	if s.buf.Len() >= drainThreshold {
		s.drainLocked()
	}
	return nil
}

// Finish flushes the remaining buffer, joins the async writer, and
// closes the file. Any deferred write error surfaces here.
func (s *XMLSink) Finish() error {
	s.mu.Lock()
	if !s.started || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.buf.WriteString("</report>\n")
	s.drainLocked()
	s.mu.Unlock()

	close(s.chunks)
	<-s.done

	closeErr := s.file.Close()
	if s.wErr != nil {
		return errors.Wrap(s.wErr, errors.CodeWriteFailed, "report write failed").
			WithContext("path", s.cfg.Path)
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, errors.CodeWriteFailed, "report close failed").
			WithContext("path", s.cfg.Path)
	}
	return nil
}

// drainLocked hands the current buffer to the writer and resets. Caller
// holds the lock.
func (s *XMLSink) drainLocked() {
	if s.buf.Len() == 0 {
		return
	}
	full := s.buf
	s.buf = s.bufs.Get()
	s.chunks <- full
}

func (s *XMLSink) writeLoop() {
	defer close(s.done)
	for chunk := range s.chunks {
		if s.wErr == nil {
			if _, err := s.file.Write(chunk.Bytes()); err != nil {
				s.wErr = err
			}
		}
		s.bufs.Put(chunk)
	}
}

// renderProperties writes the property block for an object, honoring the
// configured include list: empty means all enabled properties; otherwise
// names are matched through the object's name-to-ID lookup.
func (s *XMLSink) renderProperties(obj *object.Object) {
	ids := selectProperties(obj, s.cfg.Properties)
	if len(ids) == 0 {
		return
	}
	s.buf.WriteString("    <properties>\n")
	for _, id := range ids {
		prop, ok := obj.GetProperty(id)
		if !ok {
			continue
		}
		fmt.Fprintf(s.buf, "      <property name=%q id=\"%d\">%s</property>\n",
			prop.Name, prop.ID, escape(prop.String()))
	}
	s.buf.WriteString("    </properties>\n")
}

// selectProperties resolves the configured property names to IDs for one
// object.
func selectProperties(obj *object.Object, names []string) []property.ID {
	if len(names) == 0 {
		return obj.Enabled().IDs()
	}
	lookup := obj.NameToID()
	ids := make([]property.ID, 0, len(names))
	for _, name := range names {
		if id, ok := lookup[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
