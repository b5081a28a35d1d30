package stream

const sinkBufferSize = 32

// Sink receives messages broadcast by its parent source.
type Sink struct {
	id      string
	channel chan Message

	source *Source
}

// Messages returns the read channel of messages broadcast by the source.
// The backing channel is buffered so that a burst of deltas from one tick fits;
// the sink still has a responsibility to drain it promptly.
func (s *Sink) Messages() <-chan Message {
	return s.channel
}

// Close releases the sink. The Messages channel is closed once it is removed from the source.
func (s *Sink) Close() {
	s.source.removeSink(s)
}
