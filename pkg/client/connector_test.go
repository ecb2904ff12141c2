package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedConn struct {
	frames [][]byte
	pos    int
	closed bool
	mu     sync.Mutex
}

func (c *scriptedConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pos >= len(c.frames) {
		return 0, nil, errors.New("connection closed")
	}
	frame := c.frames[c.pos]
	c.pos++
	return 1, frame, nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// scriptedDialer returns each result in sequence, then fails.
type scriptedDialer struct {
	mu      sync.Mutex
	conns   []*scriptedConn
	dialErr []error
	calls   int
}

func (d *scriptedDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.dialErr) && d.dialErr[i] != nil {
		return nil, d.dialErr[i]
	}
	if i < len(d.conns) && d.conns[i] != nil {
		return d.conns[i], nil
	}
	return nil, errors.New("no more connections")
}

func newTestConnector(d Dialer) *Connector {
	c := NewConnector("ws://localhost/ws")
	c.Dialer = d
	c.BaseDelay = time.Millisecond
	c.MaxDelay = 5 * time.Millisecond
	return c
}

func TestConnectorDeliversEventsAndReconnects(t *testing.T) {
	dialer := &scriptedDialer{
		conns: []*scriptedConn{
			{frames: [][]byte{[]byte("a"), []byte("b")}},
			{frames: [][]byte{[]byte("c")}},
		},
	}
	c := newTestConnector(dialer)
	c.MaxAttempts = 2

	var mu sync.Mutex
	var events []string
	var states []State
	c.OnEvent = func(data []byte) {
		mu.Lock()
		events = append(events, string(data))
		mu.Unlock()
	}
	c.OnState = func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	err := c.Run(context.Background())
	if err == nil {
		t.Fatal("expected terminal error after retry budget")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i, e := range want {
		if events[i] != e {
			t.Errorf("event %d = %q, want %q", i, events[i], e)
		}
	}

	sawConnected := false
	for _, s := range states {
		if s == StateConnected {
			sawConnected = true
		}
	}
	if !sawConnected {
		t.Error("never reported connected")
	}
	if states[len(states)-1] != StateDisconnected {
		t.Errorf("final state = %s, want disconnected", states[len(states)-1])
	}
}

func TestConnectorGivesUpAfterMaxAttempts(t *testing.T) {
	dialer := &scriptedDialer{
		dialErr: []error{errors.New("refused"), errors.New("refused"), errors.New("refused")},
	}
	c := newTestConnector(dialer)
	c.MaxAttempts = 3

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if dialer.calls != 3 {
		t.Errorf("dial calls = %d, want 3", dialer.calls)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", c.State())
	}
}

func TestConnectorStopsOnContextCancel(t *testing.T) {
	dialer := &scriptedDialer{
		dialErr: []error{errors.New("refused")},
	}
	c := newTestConnector(dialer)
	c.BaseDelay = time.Hour // cancel must interrupt the backoff sleep

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("connector did not stop on cancel")
	}
}

func TestConnectorBackoffIsBounded(t *testing.T) {
	c := newTestConnector(&scriptedDialer{})
	c.BaseDelay = time.Second
	c.MaxDelay = 4 * time.Second

	if d := c.delayFor(1); d != time.Second {
		t.Errorf("attempt 1 delay = %v, want 1s", d)
	}
	if d := c.delayFor(2); d != 2*time.Second {
		t.Errorf("attempt 2 delay = %v, want 2s", d)
	}
	if d := c.delayFor(10); d != 4*time.Second {
		t.Errorf("attempt 10 delay = %v, want capped 4s", d)
	}
}
