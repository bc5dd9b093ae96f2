package rule

import (
	"fmt"
	"strings"
)

// MessageCreator builds check messages from a reusable template by
// appending context values. Creators carry mutable render state and are
// not synchronized: create one per evaluation (they are cheap values)
// rather than sharing a single instance across concurrently evaluated
// objects. For a stateless alternative use Render.
type MessageCreator struct {
	template string
	rendered string
}

// NewMessageCreator returns an empty creator.
func NewMessageCreator() *MessageCreator {
	return &MessageCreator{}
}

// SetInit establishes the template and resets the rendered state,
// returning the creator for chaining.
func (m *MessageCreator) SetInit(template string) *MessageCreator {
	m.template = template
	m.rendered = template
	return m
}

// SetContext appends the value to the template and returns the resulting
// rendered string directly, so callers can compare a source value against
// the rendered result inside a predicate.
func (m *MessageCreator) SetContext(value interface{}) string {
	var sb strings.Builder
	sb.WriteString(m.template)
	sb.WriteString(fmt.Sprintf("%v", value))
	m.rendered = sb.String()
	return m.rendered
}

// Message returns the current rendered message.
func (m *MessageCreator) Message() string { return m.rendered }

// Render is the pure alternative to a stored creator: it formats the
// template with the given context values and returns the result without
// any retained state.
func Render(template string, values ...interface{}) string {
	if len(values) == 0 {
		return template
	}
	if strings.Contains(template, "%") {
		return fmt.Sprintf(template, values...)
	}
	var sb strings.Builder
	sb.WriteString(template)
	for _, v := range values {
		sb.WriteString(fmt.Sprintf("%v", v))
	}
	return sb.String()
}
