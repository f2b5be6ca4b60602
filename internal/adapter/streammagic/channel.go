package streammagic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/finchley-audio/auriga-core/internal/adapter"
)

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

const (
	// reconnectDelay is the fixed pause between redial attempts.
	reconnectDelay = 5 * time.Second

	// dialTimeout bounds one websocket handshake.
	dialTimeout = 10 * time.Second

	// writeTimeout bounds one outbound frame.
	writeTimeout = 5 * time.Second
)

// channel is a persistent inbound message channel. Start launches the
// owning worker; Send queues one outbound text frame; Close tears the
// connection down and stops the worker.
type channel interface {
	Start()
	Send(payload []byte) error
	Close() error
}

// channelHooks are the callbacks a websocketChannel drives. onMessage
// receives every inbound text frame; onConnect fires after every
// successful (re)connection, at least once per connection, so the owner
// can idempotently resend its subscribe message; onDisconnect fires with
// the error that ended a connection.
type channelHooks struct {
	onMessage    func(payload []byte)
	onConnect    func()
	onDisconnect func(err error)
}

// websocketChannel keeps one websocket connection to a device alive. A
// single worker goroutine owns the connection: it dials, reads until the
// connection drops, then redials after a fixed delay until Close is
// called. Writes go through Send, serialized by a mutex against the
// worker's reconnect swaps.
type websocketChannel struct {
	url    string
	hooks  channelHooks
	logger adapter.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWebsocketChannel(url string, hooks channelHooks, logger adapter.Logger) *websocketChannel {
	ctx, cancel := context.WithCancel(context.Background())
	if hooks.onMessage == nil {
		hooks.onMessage = func([]byte) {}
	}
	if hooks.onConnect == nil {
		hooks.onConnect = func() {}
	}
	if hooks.onDisconnect == nil {
		hooks.onDisconnect = func(error) {}
	}
	return &websocketChannel{
		url:    url,
		hooks:  hooks,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the connection worker. Call once.
func (c *websocketChannel) Start() {
	go c.run()
}

// Send writes one text frame to the current connection.
//
// Returns:
//   - error: ErrChannel if no connection is up or the write fails
func (c *websocketChannel) Send(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("%w: not connected", ErrChannel)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: write: %w", ErrChannel, err)
	}
	return nil
}

// Close stops the worker and closes any live connection. Safe to call
// once; blocks until the worker has exited.
func (c *websocketChannel) Close() error {
	c.cancel()

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	<-c.done
	return nil
}

// run is the connection worker. It exclusively owns the dial/read cycle.
func (c *websocketChannel) run() {
	defer close(c.done)

	for {
		if c.ctx.Err() != nil {
			return
		}

		conn, err := c.dial()
		if err != nil {
			c.logger.Warn("state channel dial failed, retrying",
				"url", c.url, "delay", reconnectDelay, "error", err)
			if !c.sleep(reconnectDelay) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("state channel connected", "url", c.url)
		c.hooks.onConnect()

		readErr := c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()

		if c.ctx.Err() != nil {
			return
		}

		c.logger.Warn("state channel dropped, reconnecting",
			"url", c.url, "delay", reconnectDelay, "error", readErr)
		c.hooks.onDisconnect(readErr)

		if !c.sleep(reconnectDelay) {
			return
		}
	}
}

func (c *websocketChannel) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(c.ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrChannel, c.url, err)
	}
	return conn, nil
}

// readLoop consumes inbound frames until the connection fails.
func (c *websocketChannel) readLoop(conn *websocket.Conn) error {
	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.hooks.onMessage(payload)
	}
}

// sleep pauses for d, returning false if the channel was closed first.
func (c *websocketChannel) sleep(d time.Duration) bool {
	select {
	case <-c.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
