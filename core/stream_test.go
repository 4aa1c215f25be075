package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func frame(text string) string {
	return `data: {"choices":[{"delta":{"content":"` + text + `"}}]}` + "\n"
}

func drainDecoder(d *Decoder) []StreamEvent {
	var events []StreamEvent
	for {
		ev, ok := d.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func TestDecoderDecodesFrames(t *testing.T) {
	d := NewDecoder(zerolog.Nop())
	d.Feed([]byte(frame("Hello") + frame(" world") + "data: [DONE]\n" + frame("discarded")))

	events := drainDecoder(d)
	want := []StreamEvent{
		{Kind: EventContent, Text: "Hello"},
		{Kind: EventContent, Text: " world"},
		{Kind: EventDone},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, ev, want[i])
		}
	}
	if !d.Done() {
		t.Error("Done() = false, want true")
	}
}

func TestDecoderSkipsNonEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"blank line", "\n"},
		{"comment", ": keep-alive\n"},
		{"event tag", "event: message\n"},
		{"malformed json", "data: {not json}\n"},
		{"no choices", `data: {"choices":[]}` + "\n"},
		{"empty delta", `data: {"choices":[{"delta":{"content":""}}]}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(zerolog.Nop())
			d.Feed([]byte(tt.input))
			if ev, ok := d.Next(); ok {
				t.Errorf("Next() = %+v, want no event", ev)
			}
		})
	}
}

func TestDecoderRecoversAfterMalformedFrame(t *testing.T) {
	d := NewDecoder(zerolog.Nop())
	d.Feed([]byte("data: {broken\n" + frame("ok")))

	ev, ok := d.Next()
	if !ok {
		t.Fatal("Next() returned no event after malformed frame")
	}
	if ev.Text != "ok" {
		t.Errorf("Text = %q, want %q", ev.Text, "ok")
	}
}

func TestDecoderPartialLineAcrossFeeds(t *testing.T) {
	d := NewDecoder(zerolog.Nop())
	whole := frame("split")
	d.Feed([]byte(whole[:12]))
	if ev, ok := d.Next(); ok {
		t.Fatalf("Next() = %+v before the line completed", ev)
	}
	d.Feed([]byte(whole[12:]))

	ev, ok := d.Next()
	if !ok {
		t.Fatal("Next() returned no event after the line completed")
	}
	if ev.Text != "split" {
		t.Errorf("Text = %q, want %q", ev.Text, "split")
	}
}

func TestDecoderFlush(t *testing.T) {
	d := NewDecoder(zerolog.Nop())
	line := frame("tail")
	d.Feed([]byte(strings.TrimSuffix(line, "\n")))
	if _, ok := d.Next(); ok {
		t.Fatal("Next() returned an event before Flush")
	}
	d.Flush()

	ev, ok := d.Next()
	if !ok {
		t.Fatal("Next() returned no event after Flush")
	}
	if ev.Text != "tail" {
		t.Errorf("Text = %q, want %q", ev.Text, "tail")
	}
}

func TestDecoderIgnoresInputAfterDone(t *testing.T) {
	d := NewDecoder(zerolog.Nop())
	d.Feed([]byte("data: [DONE]\n"))
	drainDecoder(d)
	d.Feed([]byte(frame("late")))

	if ev, ok := d.Next(); ok {
		t.Errorf("Next() = %+v after the done frame, want no event", ev)
	}
}

// errorReader yields one chunk then a fixed error.
type errorReader struct {
	data string
	err  error
	sent bool
}

func (r *errorReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func (r *errorReader) Close() error { return nil }

func collectStream(s *Stream) ([]StreamEvent, error) {
	var events []StreamEvent
	for ev := range s.Events {
		events = append(events, ev)
	}
	if err, ok := <-s.Err; ok && err != nil {
		return events, err
	}
	return events, nil
}

func TestStreamForwardsEvents(t *testing.T) {
	body := io.NopCloser(strings.NewReader(frame("a") + frame("b") + "data: [DONE]\n"))
	s := newStream(body, "text", zerolog.Nop())
	defer s.Close()

	events, err := collectStream(s)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	want := []StreamEvent{
		{Kind: EventContent, Text: "a"},
		{Kind: EventContent, Text: "b"},
		{Kind: EventDone},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, ev, want[i])
		}
	}
}

func TestStreamFlushesTrailingLineOnEOF(t *testing.T) {
	body := io.NopCloser(strings.NewReader(frame("first") + strings.TrimSuffix(frame("last"), "\n")))
	s := newStream(body, "text", zerolog.Nop())
	defer s.Close()

	events, err := collectStream(s)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Text != "last" {
		t.Errorf("final event Text = %q, want %q", events[1].Text, "last")
	}
}

func TestStreamInterruptedMidBody(t *testing.T) {
	body := &errorReader{data: frame("partial"), err: errors.New("connection reset")}
	s := newStream(body, "text", zerolog.Nop())
	defer s.Close()

	events, err := collectStream(s)
	if len(events) != 1 || events[0].Text != "partial" {
		t.Fatalf("events = %+v, want the one delivered frame", events)
	}
	if !errors.Is(err, ErrStream) {
		t.Fatalf("stream error = %v, want ErrStream", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("stream error = %v, want *Error", err)
	}
	if e.Service != "text" {
		t.Errorf("Service = %q, want %q", e.Service, "text")
	}
}

func TestStreamConsumerCloseIsSilent(t *testing.T) {
	pr, pw := io.Pipe()
	s := newStream(pr, "text", zerolog.Nop())

	go pw.Write([]byte(frame("one")))
	ev, ok := <-s.Events
	if !ok || ev.Text != "one" {
		t.Fatalf("first event = %+v, ok = %v", ev, ok)
	}

	s.Close()
	for range s.Events {
	}
	if err, ok := <-s.Err; ok && err != nil {
		t.Errorf("stream error = %v after consumer Close, want none", err)
	}
	s.Close()
}

func TestStreamText(t *testing.T) {
	body := io.NopCloser(strings.NewReader(frame("The ") + frame("quick ") + frame("fox") + "data: [DONE]\n"))
	s := newStream(body, "text", zerolog.Nop())

	got, err := s.Text(context.Background())
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "The quick fox" {
		t.Errorf("Text() = %q, want %q", got, "The quick fox")
	}
}

func TestStreamTextReportsStreamError(t *testing.T) {
	body := &errorReader{data: frame("cut"), err: errors.New("connection reset")}
	s := newStream(body, "text", zerolog.Nop())

	_, err := s.Text(context.Background())
	if !errors.Is(err, ErrStream) {
		t.Errorf("Text() error = %v, want ErrStream", err)
	}
}

func TestStreamTextHonorsContext(t *testing.T) {
	pr, _ := io.Pipe()
	s := newStream(pr, "text", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Text(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Text() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClosedStream(t *testing.T) {
	s := newClosedStream()
	if _, ok := <-s.Events; ok {
		t.Error("Events not closed on a finished stream")
	}
	if _, ok := <-s.Err; ok {
		t.Error("Err not closed on a finished stream")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
