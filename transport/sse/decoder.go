// Package sse decodes server-sent event streams used by streamable HTTP MCP endpoints.
//
// A Decoder turns one connection's byte stream into a lazy, finite sequence of
// events. The sequence is not restartable: once consumed, a new connection (and
// a new Decoder) is needed to read from byte zero again.
package sse

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// ErrConsumed is returned when the event sequence of a Decoder is iterated twice.
var ErrConsumed = errors.New("sse: event stream already consumed")

// Event represents a single dispatched event.
type Event struct {
	ID    string
	Type  string
	Lines []string
}

// Data returns the event payload with data lines joined by a newline.
func (e *Event) Data() string {
	return strings.Join(e.Lines, "\n")
}

// Concat returns the event payload with data lines concatenated verbatim.
func (e *Event) Concat() string {
	return strings.Join(e.Lines, "")
}

// Decoder reads events from a stream
type Decoder struct {
	reader   *bufio.Reader
	consumed bool
}

// NewDecoder creates a decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Events returns the sequence of events. Partial event accumulation happens
// here only: data lines collect until a blank line dispatches them; a pending
// event is dispatched at end of stream.
func (d *Decoder) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		if d.consumed {
			yield(nil, ErrConsumed)
			return
		}
		d.consumed = true
		pending := &Event{}
		hasData := false
		for {
			line, err := d.reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield(nil, err)
				return
			}
			eof := err != nil
			if eof && line == "" {
				if hasData {
					yield(pending, nil)
				}
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if hasData {
					if !yield(pending, nil) {
						return
					}
				}
				pending, hasData = &Event{}, false
			} else if parseField(pending, line) {
				hasData = true
			}
			if eof {
				if hasData {
					yield(pending, nil)
				}
				return
			}
		}
	}
}

// parseField applies one line to the pending event and reports whether it carried data.
func parseField(event *Event, line string) bool {
	if strings.HasPrefix(line, ":") {
		return false
	}
	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch name {
	case "data":
		event.Lines = append(event.Lines, value)
		return true
	case "event":
		event.Type = value
	case "id":
		event.ID = value
	}
	return false
}

// IsEventStream reports whether a buffered body looks like an event stream:
// its first non blank line is a field or comment line.
func IsEventStream(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, prefix := range []string{"data:", "event:", "id:", "retry:", ":"} {
			if strings.HasPrefix(line, prefix) {
				return true
			}
		}
		return false
	}
	return false
}
