package main

import (
	"github.com/rmrobinson/tgvspeed/services/ui/menubar/widget"
)

const (
	widgetSinkBufferSize = 256
)

// WidgetSink implements zap.Sink by writing all messages to the debug widget.
// Writes never wait on the UI: messages are dropped while the buffer is full.
type WidgetSink struct {
	widget *widget.Debug
	lines  chan string
}

// NewWidgetSink creates a new widget logger sink
func NewWidgetSink(widget *widget.Debug) *WidgetSink {
	s := &WidgetSink{
		widget: widget,
		lines:  make(chan string, widgetSinkBufferSize),
	}
	go s.run()
	return s
}

func (s *WidgetSink) run() {
	for line := range s.lines {
		s.widget.Append(line)
	}
}

// Write queues the contents for the widget
func (s *WidgetSink) Write(p []byte) (n int, err error) {
	select {
	case s.lines <- string(p):
	default:
	}
	return len(p), nil
}

// Close is a nop
func (s *WidgetSink) Close() error { return nil }

// Sync is a nop
func (s *WidgetSink) Sync() error { return nil }
