package client

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connector's connection state as surfaced to the UI.
type State string

const (
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateDisconnected State = "disconnected"
)

// Conn is the readable half of a WebSocket session.
type Conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// Dialer opens a session; swapped out in tests.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return conn, err
}

// Connector maintains one event session against the server, redialing
// with bounded exponential backoff when it drops. Events are handed to
// OnEvent; state changes to OnState. The session is scoped to Run's
// context: cancel it and the connector stops for good.
type Connector struct {
	URL    string
	Dialer Dialer

	// Backoff starts at BaseDelay and doubles up to MaxDelay. After
	// MaxAttempts consecutive failures the connector gives up and reports
	// StateDisconnected; zero means retry forever.
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	OnEvent func(data []byte)
	OnState func(state State)

	mu    sync.Mutex
	state State
}

func NewConnector(url string) *Connector {
	return &Connector{
		URL:       url,
		Dialer:    wsDialer{},
		BaseDelay: time.Second,
		MaxDelay:  30 * time.Second,
		state:     StateDisconnected,
	}
}

func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connector) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.OnState != nil {
		c.OnState(s)
	}
}

// Run dials and reads until the context is cancelled or the retry budget
// is exhausted. A successful connection resets the backoff.
func (c *Connector) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	attempts := 0
	for {
		conn, err := c.Dialer.Dial(ctx, c.URL)
		if err != nil {
			attempts++
			if c.MaxAttempts > 0 && attempts >= c.MaxAttempts {
				return err
			}
			c.setState(StateReconnecting)
			if err := c.sleep(ctx, c.delayFor(attempts)); err != nil {
				return err
			}
			continue
		}

		attempts = 0
		c.setState(StateConnected)
		c.readLoop(ctx, conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.setState(StateReconnecting)
		if err := c.sleep(ctx, c.delayFor(1)); err != nil {
			return err
		}
	}
}

func (c *Connector) readLoop(ctx context.Context, conn Conn) {
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("event session dropped: %v", err)
			}
			return
		}
		if c.OnEvent != nil {
			c.OnEvent(data)
		}
	}
}

func (c *Connector) delayFor(attempt int) time.Duration {
	delay := c.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay && c.MaxDelay > 0 {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func (c *Connector) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
