package stream

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type testMessage struct {
	value string
}

func (tm *testMessage) String() string {
	return tm.value
}

func TestNewSink(t *testing.T) {
	s := NewSource(zaptest.NewLogger(t))

	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func(t *testing.T, wg *sync.WaitGroup) {
			sink := s.NewSink()
			assert.NotNil(t, sink)
			wg.Done()
		}(t, &wg)
	}

	wg.Wait()
	assert.Equal(t, 1000, s.SinkCount())
}

func TestSinkRemove(t *testing.T) {
	s := NewSource(zaptest.NewLogger(t))

	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func(t *testing.T, wg *sync.WaitGroup) {
			sink := s.NewSink()
			assert.NotNil(t, sink)
			sink.Close()

			wg.Done()
		}(t, &wg)
	}

	wg.Wait()
	assert.Equal(t, 0, s.SinkCount())
}

func TestMessaging(t *testing.T) {
	s := NewSource(zaptest.NewLogger(t))

	var sendMessageWg sync.WaitGroup
	var messageReceivedWg sync.WaitGroup

	testMsg := &testMessage{"title \"🚄 180.0 km/h\""}

	for i := 0; i < 100; i++ {
		sendMessageWg.Add(1)
		messageReceivedWg.Add(1)
		go func(t *testing.T) {
			sink := s.NewSink()
			assert.NotNil(t, sink)
			sendMessageWg.Done()

			max := rand.Intn(5)

			for i := 0; i < max; i++ {
				msg := <-sink.Messages()
				assert.Equal(t, testMsg, msg)
			}

			sink.Close()
			messageReceivedWg.Done()
		}(t)
	}

	sendMessageWg.Wait()

	for i := 0; i < 5; i++ {
		s.SendMessage(testMsg)
	}

	messageReceivedWg.Wait()
	assert.Equal(t, 0, s.SinkCount())
}

func TestSinkDropsWhenFull(t *testing.T) {
	s := NewSource(zaptest.NewLogger(t))
	sink := s.NewSink()

	for i := 0; i < sinkBufferSize+5; i++ {
		s.SendMessage(&testMessage{"x"})
	}
	assert.Len(t, sink.Messages(), sinkBufferSize)

	sink.Close()
	count := 0
	for range sink.Messages() {
		count++
	}
	assert.Equal(t, sinkBufferSize, count)
}
