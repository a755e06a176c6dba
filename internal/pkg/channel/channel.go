// Package channel maintains the live event subscription to the
// automation platform: disconnected -> connecting -> subscribed, with
// linear reconnect backoff and client-side entity filtering.
package channel

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sense360/zone-configurator/internal/pkg/config"
	"github.com/sense360/zone-configurator/internal/pkg/model"
	"github.com/sense360/zone-configurator/pkg/sockets"
)

type Channel struct {
	cfg    *config.HassConfig
	events chan<- model.Event
	logger *zap.Logger

	mu          sync.Mutex
	conn        sockets.Connection
	state       model.ChannelState
	attempts    int
	msgID       int
	subscribeID int
	retryTimer  *time.Timer
	ctx         context.Context
}

// New wires a channel to the session's event queue. Nothing connects
// until Start.
func New(cfg *config.HassConfig, events chan<- model.Event) *Channel {
	return &Channel{
		cfg:    cfg,
		events: events,
		logger: zap.L(),
		state:  model.ChannelDisconnected,
	}
}

// Start dials the platform and keeps the subscription alive until ctx
// is cancelled or the reconnect budget is exhausted.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
	if err := c.dial(); err != nil {
		c.scheduleReconnect()
	}
	<-ctx.Done()
	c.mu.Lock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
	return ctx.Err()
}

// State reports the current connection state.
func (c *Channel) State() model.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restart resets the reconnect budget and dials again. Used when the
// channel gave up and an external trigger (device reselect, manual
// refresh) asks for another go.
func (c *Channel) Restart() {
	c.mu.Lock()
	c.attempts = 0
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
	if err := c.dial(); err != nil {
		c.scheduleReconnect()
	}
}

func websocketURL(base string) string {
	u := base
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/api/websocket"
}

func (c *Channel) dial() error {
	c.setState(model.ChannelConnecting)

	c.mu.Lock()
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	conn := sockets.New(
		sockets.OnConnected(c.onConnected),
		sockets.OnMessage(c.onMessage),
		sockets.OnError(c.onError),
		sockets.InsecureSkipVerify(),
	)
	c.conn = conn
	c.mu.Unlock()

	u := websocketURL(c.cfg.URL)
	c.logger.Debug("dialing live state channel", zap.String("url", u))
	if err := conn.Dial(ctx, u, ""); err != nil {
		c.logger.Error("failed to dial live state channel", zap.String("url", u), zap.Error(err))
		c.setState(model.ChannelDisconnected)
		return err
	}
	return nil
}

func (c *Channel) onConnected(conn sockets.Connection) {
	// The platform speaks first with auth_required; nothing to do yet.
	c.logger.Debug("live state channel connected, awaiting auth challenge")
}

func (c *Channel) onMessage(data []byte, conn sockets.Connection) {
	msg := serverMessage{}
	if err := json.Unmarshal(data, &msg); err != nil {
		// Malformed payloads are dropped, never fatal to the channel.
		c.logger.Warn("dropping malformed channel payload", zap.Error(err))
		return
	}

	switch msg.Type {
	case "auth_required":
		c.send(conn, authMessage{Type: "auth", AccessToken: c.cfg.Token})
	case "auth_ok":
		c.subscribe(conn)
	case "auth_invalid":
		c.logger.Error("channel authentication rejected", zap.String("message", msg.Message))
		_ = conn.Close()
	case "result":
		c.handleResult(msg)
	case "event":
		c.handleEvent(msg)
	case "pong":
	default:
		c.logger.Debug("ignoring channel message", zap.String("type", msg.Type))
	}
}

func (c *Channel) subscribe(conn sockets.Connection) {
	c.mu.Lock()
	c.msgID++
	c.subscribeID = c.msgID
	id := c.subscribeID
	c.mu.Unlock()

	// Subscribe to the generic state_changed class: the selected device
	// can change client-side, so filtering happens on our end.
	c.send(conn, subscribeMessage{ID: id, Type: "subscribe_events", EventType: "state_changed"})
}

func (c *Channel) handleResult(msg serverMessage) {
	c.mu.Lock()
	isSubscribe := msg.ID == c.subscribeID
	c.mu.Unlock()
	if !isSubscribe {
		return
	}
	if msg.Success == nil || !*msg.Success {
		c.logger.Error("event subscription rejected", zap.String("message", msg.Message))
		return
	}
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	c.setState(model.ChannelSubscribed)
	c.logger.Info("subscribed to state_changed events")
}

func (c *Channel) handleEvent(msg serverMessage) {
	if msg.Event == nil || msg.Event.EventType != "state_changed" {
		return
	}
	entityID := msg.Event.Data.EntityID
	if msg.Event.Data.NewState == nil || !model.IsWatchedEntity(entityID) {
		return
	}
	c.emit(model.StateChanged{
		EntityID: entityID,
		State: model.EntityState{
			State:      msg.Event.Data.NewState.State,
			Attributes: msg.Event.Data.NewState.Attributes,
		},
	})
}

func (c *Channel) onError(err error) {
	c.logger.Warn("live state channel closed", zap.Error(err))
	c.setState(model.ChannelDisconnected)
	c.scheduleReconnect()
}

// reconnectDelay implements linear backoff: attempt n waits n times the
// base delay.
func reconnectDelay(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt) * base
}

func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil && c.ctx.Err() != nil {
		return
	}
	// One pending attempt at a time: a write failure and the read loop
	// can both report the same dead connection.
	if c.retryTimer != nil {
		return
	}
	c.attempts++
	if c.attempts > c.cfg.MaxReconnects {
		c.logger.Error("reconnect budget exhausted, staying disconnected until restarted",
			zap.Int("attempts", c.attempts-1))
		return
	}
	delay := reconnectDelay(c.attempts, c.cfg.ReconnectBase)
	c.logger.Info("scheduling reconnect", zap.Int("attempt", c.attempts), zap.Duration("delay", delay))
	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		c.mu.Unlock()
		if err := c.dial(); err != nil {
			c.scheduleReconnect()
		}
	})
}

func (c *Channel) send(conn sockets.Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("failed to marshal channel message", zap.Error(err))
		return
	}
	if err := conn.Send(sockets.Msg{Body: data}); err != nil {
		c.logger.Warn("failed to send channel message", zap.Error(err))
	}
}

func (c *Channel) setState(state model.ChannelState) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()
	if changed {
		c.emit(model.ChannelStatus{State: state})
	}
}

// emit never blocks: snapshot updates must not be held up by a slow
// consumer, so a full queue drops the event instead.
func (c *Channel) emit(ev model.Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event queue full, dropping channel event")
	}
}
