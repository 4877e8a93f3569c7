package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSClient implements AccountSubscriber over a Solana WebSocket endpoint.
// Subscriptions survive reconnects: on a new connection every tracked
// pubkey is re-subscribed and its channel remapped to the new sub ID.
type WSClient struct {
	endpoint string
	config   WSConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	requestID atomic.Uint64

	mu         sync.Mutex
	subs       map[string]chan AccountNotification // pubkey -> channel
	idToPubkey map[int64]string                    // subscription ID -> pubkey
	pending    map[uint64]string                   // request ID -> pubkey

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient connects to the endpoint and starts the read/ping loops.
func NewWSClient(ctx context.Context, endpoint string, config *WSConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClient{
		endpoint:   endpoint,
		config:     cfg,
		subs:       make(map[string]chan AccountNotification),
		idToPubkey: make(map[int64]string),
		pending:    make(map[uint64]string),
		done:       make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *WSClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	return nil
}

// SubscribeAccount subscribes to changes of one account. The returned
// channel stays valid across reconnects and drops notifications when the
// consumer lags.
func (c *WSClient) SubscribeAccount(ctx context.Context, pubkey string) (<-chan AccountNotification, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	c.mu.Lock()
	if ch, ok := c.subs[pubkey]; ok {
		c.mu.Unlock()
		return ch, nil
	}
	ch := make(chan AccountNotification, 16)
	c.subs[pubkey] = ch
	c.mu.Unlock()

	if err := c.sendSubscribe(pubkey); err != nil {
		c.mu.Lock()
		delete(c.subs, pubkey)
		c.mu.Unlock()
		return nil, err
	}

	return ch, nil
}

func (c *WSClient) sendSubscribe(pubkey string) error {
	reqID := c.requestID.Add(1)

	c.mu.Lock()
	c.pending[reqID] = pubkey
	c.mu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "accountSubscribe",
		Params: []interface{}{
			pubkey,
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		},
	}
	return c.writeJSON(req)
}

func (c *WSClient) writeJSON(v interface{}) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// Close shuts down the client and its goroutines.
func (c *WSClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch routes one raw WebSocket message: subscription confirmations
// remap sub IDs, notifications fan out to the pubkey channel.
func (c *WSClient) dispatch(msg []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return
	}

	switch {
	case env.Method == "accountNotification" && env.Params != nil:
		c.mu.Lock()
		pubkey, ok := c.idToPubkey[env.Params.Subscription]
		var ch chan AccountNotification
		if ok {
			ch = c.subs[pubkey]
		}
		c.mu.Unlock()
		if ch == nil {
			return
		}
		n := AccountNotification{
			Pubkey:   pubkey,
			Slot:     env.Params.Result.Context.Slot,
			Lamports: env.Params.Result.Value.Lamports,
		}
		select {
		case ch <- n:
		default: // consumer lagging, drop
		}

	case env.ID != 0 && env.Result != nil:
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err != nil {
			return
		}
		c.mu.Lock()
		if pubkey, ok := c.pending[env.ID]; ok {
			delete(c.pending, env.ID)
			c.idToPubkey[subID] = pubkey
		}
		c.mu.Unlock()
	}
}

// reconnect re-establishes the connection with backoff and re-subscribes
// every tracked pubkey. Returns false when the client was closed.
func (c *WSClient) reconnect() bool {
	delay := c.config.ReconnectDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.connect(context.Background()); err == nil {
			break
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}

	c.mu.Lock()
	c.idToPubkey = make(map[int64]string)
	c.pending = make(map[uint64]string)
	pubkeys := make([]string, 0, len(c.subs))
	for pk := range c.subs {
		pubkeys = append(pubkeys, pk)
	}
	c.mu.Unlock()

	for _, pk := range pubkeys {
		if err := c.sendSubscribe(pk); err != nil {
			// The next read failure triggers another reconnect pass.
			return true
		}
	}
	return true
}

func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// wsEnvelope is the shape shared by subscription confirmations and
// account notifications.
type wsEnvelope struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *wsParams       `json:"params"`
}

type wsParams struct {
	Subscription int64    `json:"subscription"`
	Result       wsResult `json:"result"`
}

type wsResult struct {
	Context wsContext `json:"context"`
	Value   wsValue   `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsValue struct {
	Lamports uint64 `json:"lamports"`
}

var _ AccountSubscriber = (*WSClient)(nil)
