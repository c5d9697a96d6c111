// internal/dispatcher/dispatcher_test.go
package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) log(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) Debug(msg string, kv ...any) { l.log("DEBUG", msg, kv) }
func (l *testLogger) Info(msg string, kv ...any)  { l.log("INFO", msg, kv) }
func (l *testLogger) Error(msg string, kv ...any) { l.log("ERROR", msg, kv) }

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(":POINT:ADD:", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: ":POINT:ADD:", Args: []string{"1", "2", "3"}, Client: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "result", result)
	assert.Equal(t, "c1", got.Client)
	assert.Equal(t, "2", got.Arg(1))
	assert.Equal(t, "", got.Arg(5))
	assert.False(t, got.Timestamp.IsZero(), "timestamp defaulted")
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(Event{Command: ":UNKNOWN:"})
	assert.Error(t, err)
}

func TestDispatcher_HandlerErrorPassesThrough(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sentinel := errors.New("boom")
	d.Register(":FAIL:", func(e Event) (any, error) { return nil, sentinel })

	_, err := d.Dispatch(Event{Command: ":FAIL:"})
	assert.ErrorIs(t, err, sentinel)
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	d.Register(":BUFFERED:", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: ":BUFFERED:"})
		require.NoError(t, err)
		assert.Equal(t, "queued", result)
	}

	wg.Wait()
	assert.Equal(t, int32(3), processed.Load())
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register(":FULL:", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	_, err := d.Dispatch(Event{Command: ":FULL:"}) // being processed
	require.NoError(t, err)
	<-started
	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)
	_, err = d.Dispatch(Event{Command: ":FULL:"})
	require.NoError(t, err)

	_, err = d.Dispatch(Event{Command: ":FULL:"})
	assert.Error(t, err)

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register(":BLOCKING:", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: ":BLOCKING:"})
	<-started
	d.Dispatch(Event{Command: ":BLOCKING:"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: ":BLOCKING:"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_CloseDrainsAndRejects(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	var processed atomic.Int32
	d.Register(":Q:", func(e Event) (any, error) {
		processed.Add(1)
		return nil, nil
	}, Buffered(10))

	for i := 0; i < 5; i++ {
		_, err := d.Dispatch(Event{Command: ":Q:"})
		require.NoError(t, err)
	}
	d.Close()
	d.Close()

	assert.Equal(t, int32(5), processed.Load())
	_, err = d.Dispatch(Event{Command: ":Q:"})
	assert.Error(t, err)
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":LOGGED:", func(e Event) (any, error) { return "ok", nil }, Logged())

	_, err := d.Dispatch(Event{Command: ":LOGGED:", Args: []string{"a", "b"}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(logger.snapshot()), 2)
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(":ERROR:", func(e Event) (any, error) {
		return nil, fmt.Errorf("test error")
	}, Logged())

	d.Dispatch(Event{Command: ":ERROR:"})

	hasError := false
	for _, msg := range logger.snapshot() {
		if strings.HasPrefix(msg, "ERROR") {
			hasError = true
		}
	}
	assert.True(t, hasError, "expected error log message")
}

func TestDispatcher_Commands(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(":B:", func(e Event) (any, error) { return nil, nil })
	d.Register(":A:", func(e Event) (any, error) { return nil, nil })

	assert.Equal(t, []string{":A:", ":B:"}, d.Commands())
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var wg sync.WaitGroup
	wg.Add(1)
	d.Register(":COMBINED:", func(e Event) (any, error) {
		wg.Done()
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: ":COMBINED:"})
	require.NoError(t, err)
	assert.Equal(t, "queued", result)

	wg.Wait()
	assert.GreaterOrEqual(t, len(logger.snapshot()), 2)
}
