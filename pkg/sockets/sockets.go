// Package sockets is a small callback-style wrapper around a WebSocket
// connection. Consumers register OnMessage/OnError/OnConnected handlers
// and get ping keepalive for free.
package sockets

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Connection interface {
	Dial(ctx context.Context, url, subprotocol string) error
	Send(msg Msg) error
	IsClosed() bool
	io.Closer
}

// Msg is the message structure.
type Msg struct {
	Body []byte
}

type Conn struct {
	mu               sync.Mutex
	ws               *websocket.Conn
	sslSkipVerify    bool
	closed           bool
	errored          bool
	pingIntervalSecs int
	pingMsg          []byte
	onError          func(err error)
	onMessage        func([]byte, Connection)
	onConnected      func(Connection)
}

func New(opts ...func(*Conn)) Connection {
	c := &Conn{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close closes the underlying connection. Further Sends fail.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *Conn) close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws != nil {
		return c.ws.Close()
	}
	return nil
}

func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) Send(msg Msg) error {
	c.mu.Lock()
	if c.closed || c.ws == nil {
		c.mu.Unlock()
		return errors.New("closed connection")
	}
	err := c.ws.WriteMessage(websocket.TextMessage, msg.Body)
	c.mu.Unlock()
	if err != nil {
		c.notifyError(err)
	}
	return err
}

// notifyError closes the connection and fires the error callback. A
// failed write and the read loop observing the same dead socket both
// land here; the callback fires once per connection.
func (c *Conn) notifyError(err error) {
	c.mu.Lock()
	_ = c.close()
	fire := !c.errored
	c.errored = true
	c.mu.Unlock()
	if fire && c.onError != nil {
		c.onError(err)
	}
}

func (c *Conn) Dial(ctx context.Context, url, subProtocol string) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.sslSkipVerify,
		},
	}
	if subProtocol != "" {
		dialer.Subprotocols = []string{subProtocol}
	}
	conn, res, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}

	c.mu.Lock()
	c.ws = conn
	c.closed = false
	c.errored = false
	c.mu.Unlock()

	if c.onConnected != nil {
		go c.onConnected(c)
	}
	go c.readLoop(conn)
	c.setupPing()
	return nil
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			c.notifyError(err)
			return
		}
		if c.onMessage != nil {
			c.onMessage(msg, c)
		}
	}
}

func (c *Conn) setupPing() {
	if c.pingIntervalSecs <= 0 || len(c.pingMsg) == 0 {
		return
	}
	ticker := time.NewTicker(time.Second * time.Duration(c.pingIntervalSecs))
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			if c.Send(Msg{Body: c.pingMsg}) != nil {
				return
			}
		}
	}()
}
