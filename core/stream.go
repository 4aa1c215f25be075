package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"
)

// doneMarker terminates an event feed.
const doneMarker = "[DONE]"

// EventKind distinguishes stream event types.
type EventKind int

const (
	// EventContent carries a text delta.
	EventContent EventKind = iota

	// EventDone marks the server's explicit end-of-stream frame. No
	// events follow it.
	EventDone
)

// StreamEvent is one decoded frame of an incremental response.
type StreamEvent struct {
	Kind EventKind
	Text string
}

// chatFrame is the wire shape of one streamed completion frame.
type chatFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns raw body chunks into StreamEvents. Feed it chunks as they
// arrive and pop decoded events with Next. Between feeds it buffers at
// most one partial line. Not safe for concurrent use.
//
// Frame rules:
//   - blank lines and non-data lines (comments, "event:" tags) are ignored
//   - "data: [DONE]" emits EventDone and stops decoding; later input is
//     discarded
//   - malformed JSON payloads are skipped with a debug log, never raised
//   - frames whose delta carries no text produce no event
type Decoder struct {
	pending   *queue.Queue
	remainder []byte
	done      bool
	log       zerolog.Logger
}

// NewDecoder builds an empty decoder.
func NewDecoder(log zerolog.Logger) *Decoder {
	return &Decoder{
		pending: queue.New(),
		log:     log,
	}
}

// Feed appends a chunk and decodes every line it completes.
func (d *Decoder) Feed(chunk []byte) {
	if d.done {
		return
	}
	d.remainder = append(d.remainder, chunk...)
	for {
		i := bytes.IndexByte(d.remainder, '\n')
		if i < 0 {
			return
		}
		line := string(d.remainder[:i])
		d.remainder = d.remainder[i+1:]
		d.decodeLine(line)
		if d.done {
			d.remainder = nil
			return
		}
	}
}

// Flush decodes a trailing unterminated line. Call once at end of input.
func (d *Decoder) Flush() {
	if d.done || len(d.remainder) == 0 {
		return
	}
	line := string(d.remainder)
	d.remainder = nil
	d.decodeLine(line)
}

// Next pops the oldest decoded event.
func (d *Decoder) Next() (StreamEvent, bool) {
	if d.pending.Length() == 0 {
		return StreamEvent{}, false
	}
	return d.pending.Remove().(StreamEvent), true
}

// Done reports whether the end-of-stream frame was seen.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) decodeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if !strings.HasPrefix(line, "data:") {
		return
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

	if payload == doneMarker {
		d.done = true
		d.pending.Add(StreamEvent{Kind: EventDone})
		return
	}

	var frame chatFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		d.log.Debug().Err(err).Msg("skipping malformed stream frame")
		return
	}
	if len(frame.Choices) == 0 {
		return
	}
	text := frame.Choices[0].Delta.Content
	if text == "" {
		return
	}
	d.pending.Add(StreamEvent{Kind: EventContent, Text: text})
}

// Stream is an open incremental response.
//
// Channel rules:
//   - Events emits decoded events in order and is closed when the stream
//     ends, whatever the cause
//   - Err emits at most one error and is closed when the stream ends
//   - Close releases the connection on every path and is safe to call
//     more than once; abandoning a Stream without Close leaks the body
type Stream struct {
	// Events emits decoded events in arrival order.
	Events <-chan StreamEvent

	// Err emits at most one error.
	Err <-chan error

	body      io.ReadCloser
	done      chan struct{}
	closeOnce sync.Once
}

// newStream starts the pump goroutine over an open response body.
func newStream(body io.ReadCloser, service string, log zerolog.Logger) *Stream {
	events := make(chan StreamEvent, 16)
	errc := make(chan error, 1)
	s := &Stream{
		Events: events,
		Err:    errc,
		body:   body,
		done:   make(chan struct{}),
	}
	go s.pump(events, errc, service, log)
	return s
}

// newClosedStream builds a stream that is already finished. Used when a
// tolerated failure means there is nothing to emit.
func newClosedStream() *Stream {
	events := make(chan StreamEvent)
	errc := make(chan error)
	close(events)
	close(errc)
	return &Stream{
		Events: events,
		Err:    errc,
		done:   make(chan struct{}),
	}
}

// Close releases the underlying connection. Safe to call more than once
// and after the stream has ended.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.body != nil {
			s.body.Close()
		}
	})
	return nil
}

// pump reads the body, feeds the decoder, and forwards events until the
// feed terminates, errors, stalls, or the consumer closes the stream.
func (s *Stream) pump(events chan<- StreamEvent, errc chan<- error, service string, log zerolog.Logger) {
	defer s.Close()
	defer close(events)
	defer close(errc)

	decoder := NewDecoder(log)
	buf := make([]byte, 4096)

	// Idle watchdog: each read must complete within ReadTimeout or the
	// body is closed out from under it. Armed only while reading so a
	// slow consumer does not trip it.
	var stalled atomic.Bool
	watchdog := time.AfterFunc(ReadTimeout, func() {
		stalled.Store(true)
		s.body.Close()
	})
	defer watchdog.Stop()

	for {
		watchdog.Reset(ReadTimeout)
		n, err := s.body.Read(buf)
		watchdog.Stop()

		if n > 0 {
			decoder.Feed(buf[:n])
			if !s.forward(decoder, events) {
				return
			}
		}

		if err != nil {
			select {
			case <-s.done:
				// Consumer closed the stream; not a failure.
				return
			default:
			}

			if err == io.EOF {
				decoder.Flush()
				s.forward(decoder, events)
				return
			}

			if stalled.Load() {
				errc <- &Error{
					Service:    service,
					Message:    "stream stalled: no data received within " + ReadTimeout.String(),
					Suggestion: "Check your connection or increase timeout.",
					Err:        ErrTimeout,
				}
				return
			}

			errc <- &Error{
				Service:    service,
				Message:    "stream interrupted: " + err.Error(),
				Suggestion: "The response was cut short; try again.",
				Err:        ErrStream,
			}
			return
		}
	}
}

// forward drains the decoder into the events channel. Returns false when
// the stream is finished and the pump should stop.
func (s *Stream) forward(decoder *Decoder, events chan<- StreamEvent) bool {
	for {
		ev, ok := decoder.Next()
		if !ok {
			return true
		}
		select {
		case events <- ev:
		case <-s.done:
			return false
		}
		if ev.Kind == EventDone {
			return false
		}
	}
}

// Text accumulates content events until the stream ends and returns the
// concatenated text. Blocks until the stream completes or ctx ends. The
// stream is closed on every return path.
func (s *Stream) Text(ctx context.Context) (string, error) {
	defer s.Close()

	var out strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-s.Events:
			if !ok {
				goto done
			}
			if ev.Kind == EventContent {
				out.WriteString(ev.Text)
			}
		}
	}

done:
	if err, ok := <-s.Err; ok && err != nil {
		return "", err
	}
	return out.String(), nil
}
