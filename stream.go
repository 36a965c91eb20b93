package seaswap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultStreamEndpoint is the marketplace's order event stream.
	DefaultStreamEndpoint = "wss://stream.seaswap.io"

	// HeartbeatInterval keeps idle stream connections alive.
	HeartbeatInterval = 30 * time.Second

	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
)

// Stream action types.
const (
	ActionHeartbeat   = "HEARTBEAT"
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
)

// Stream channel types.
const (
	ChannelOrderListed    = "order.listed"
	ChannelOrderCancelled = "order.cancelled"
	ChannelOrderMatched   = "order.matched"
	ChannelBidEntered     = "auction.bid.entered"
)

// SubscribeMessage subscribes one channel scoped to a collection. An empty
// collection address covers the whole marketplace.
type SubscribeMessage struct {
	Action     string `json:"action"`
	Channel    string `json:"channel"`
	Collection string `json:"collection,omitempty"`
}

// HeartbeatMessage keeps the connection alive.
type HeartbeatMessage struct {
	Action string `json:"action"`
}

// OrderEvent is an order lifecycle message from the stream.
type OrderEvent struct {
	Channel      string `json:"channel"`
	OrderHash    string `json:"order_hash"`
	Maker        string `json:"maker"`
	Taker        string `json:"taker"`
	Collection   string `json:"collection"`
	TokenID      string `json:"token_id"`
	Side         int    `json:"side"`
	SaleKind     int    `json:"sale_kind"`
	PaymentToken string `json:"payment_token"`
	BasePrice    string `json:"base_price"`
	TxHash       string `json:"tx_hash,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// StreamEventHandler handles a decoded order event.
type StreamEventHandler func(event *OrderEvent)

// StreamErrorHandler handles stream transport errors.
type StreamErrorHandler func(err error)

// StreamConfig holds configuration for the order event stream.
type StreamConfig struct {
	Endpoint             string
	APIKey               string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int

	// OnEvent receives every decoded order event. Notifier, when set, is
	// additionally fed each event keyed by its channel.
	OnEvent      StreamEventHandler
	OnError      StreamErrorHandler
	OnConnect    func()
	OnDisconnect func()
	Notifier     Notifier
}

// Stream is the order event stream client. It reconnects with bounded
// attempts and replays its subscriptions after a reconnect.
type Stream struct {
	config StreamConfig

	mu          sync.RWMutex
	conn        *websocket.Conn
	isConnected bool

	subMu         sync.RWMutex
	subscriptions map[string]SubscribeMessage

	ctx              context.Context
	cancel           context.CancelFunc
	heartbeatTicker  *time.Ticker
	reconnectAttempt int
}

// NewStream creates an order event stream client.
func NewStream(config StreamConfig) *Stream {
	if config.Endpoint == "" {
		config.Endpoint = DefaultStreamEndpoint
	}
	if config.ReconnectInterval == 0 {
		config.ReconnectInterval = DefaultReconnectInterval
	}
	if config.MaxReconnectAttempts == 0 {
		config.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}

	return &Stream{
		config:        config,
		subscriptions: make(map[string]SubscribeMessage),
	}
}

// Connect establishes the stream connection.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	u, err := url.Parse(s.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse stream endpoint: %w", err)
	}
	q := u.Query()
	q.Set("apikey", s.config.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(s.ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.reconnectAttempt = 0

	s.startHeartbeat()
	go s.readLoop()

	if s.config.OnConnect != nil {
		go s.config.OnConnect()
	}

	return nil
}

// Disconnect closes the stream connection.
func (s *Stream) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isConnected {
		return nil
	}
	s.isConnected = false

	if s.cancel != nil {
		s.cancel()
	}
	if s.heartbeatTicker != nil {
		s.heartbeatTicker.Stop()
	}

	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}

	if s.config.OnDisconnect != nil {
		go s.config.OnDisconnect()
	}

	return err
}

// IsConnected returns the current connection status.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// Subscribe subscribes one channel, optionally scoped to a collection
// address. The subscription survives reconnects.
func (s *Stream) Subscribe(channel, collection string) error {
	msg := SubscribeMessage{
		Action:     ActionSubscribe,
		Channel:    channel,
		Collection: collection,
	}

	if err := s.sendMessage(msg); err != nil {
		return err
	}

	s.subMu.Lock()
	s.subscriptions[subscriptionKey(channel, collection)] = msg
	s.subMu.Unlock()

	return nil
}

// Unsubscribe removes one subscription.
func (s *Stream) Unsubscribe(channel, collection string) error {
	msg := SubscribeMessage{
		Action:     ActionUnsubscribe,
		Channel:    channel,
		Collection: collection,
	}

	if err := s.sendMessage(msg); err != nil {
		return err
	}

	s.subMu.Lock()
	delete(s.subscriptions, subscriptionKey(channel, collection))
	s.subMu.Unlock()

	return nil
}

// SubscribeListings subscribes to new listings for a collection.
func (s *Stream) SubscribeListings(collection string) error {
	return s.Subscribe(ChannelOrderListed, collection)
}

// SubscribeCancellations subscribes to order cancellations for a collection.
func (s *Stream) SubscribeCancellations(collection string) error {
	return s.Subscribe(ChannelOrderCancelled, collection)
}

// SubscribeMatches subscribes to settled matches for a collection.
func (s *Stream) SubscribeMatches(collection string) error {
	return s.Subscribe(ChannelOrderMatched, collection)
}

// SubscribeBids subscribes to English auction bids for a collection.
func (s *Stream) SubscribeBids(collection string) error {
	return s.Subscribe(ChannelBidEntered, collection)
}

// Subscriptions returns the keys of the active subscriptions.
func (s *Stream) Subscriptions() []string {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	subs := make([]string, 0, len(s.subscriptions))
	for key := range s.subscriptions {
		subs = append(subs, key)
	}
	return subs
}

func subscriptionKey(channel, collection string) string {
	return fmt.Sprintf("%s:%s", channel, collection)
}

func (s *Stream) sendMessage(msg interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isConnected || s.conn == nil {
		return fmt.Errorf("stream not connected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (s *Stream) startHeartbeat() {
	s.heartbeatTicker = time.NewTicker(HeartbeatInterval)

	go func() {
		for {
			select {
			case <-s.heartbeatTicker.C:
				if err := s.sendMessage(HeartbeatMessage{Action: ActionHeartbeat}); err != nil {
					if s.config.OnError != nil {
						s.config.OnError(fmt.Errorf("heartbeat failed: %w", err))
					}
				}
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Stream) readLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()

			if conn == nil {
				return
			}

			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && s.config.OnError != nil {
					s.config.OnError(fmt.Errorf("read error: %w", err))
				}
				s.handleDisconnect()
				return
			}

			s.dispatch(data)
		}
	}
}

// dispatch decodes one frame and fans it out. Undecodable frames are
// reported, not fatal, so a stream schema addition does not kill the
// connection.
func (s *Stream) dispatch(data []byte) {
	var event OrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		if s.config.OnError != nil {
			s.config.OnError(fmt.Errorf("failed to decode event: %w", err))
		}
		return
	}
	if event.Channel == "" {
		return
	}

	if s.config.OnEvent != nil {
		s.config.OnEvent(&event)
	}
	if s.config.Notifier != nil {
		s.config.Notifier.Notify(event.Channel, map[string]interface{}{
			"order_hash": event.OrderHash,
			"maker":      event.Maker,
			"collection": event.Collection,
			"token_id":   event.TokenID,
			"base_price": event.BasePrice,
			"tx_hash":    event.TxHash,
		})
	}
}

func (s *Stream) handleDisconnect() {
	s.mu.Lock()
	wasConnected := s.isConnected
	s.isConnected = false
	if s.heartbeatTicker != nil {
		s.heartbeatTicker.Stop()
	}
	s.mu.Unlock()

	if wasConnected && s.config.OnDisconnect != nil {
		s.config.OnDisconnect()
	}

	go s.attemptReconnect()
}

func (s *Stream) attemptReconnect() {
	for s.reconnectAttempt < s.config.MaxReconnectAttempts {
		s.reconnectAttempt++

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.config.ReconnectInterval):
		}

		if err := s.Connect(context.Background()); err != nil {
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("reconnect attempt %d failed: %w", s.reconnectAttempt, err))
			}
			continue
		}

		s.resubscribe()
		return
	}

	if s.config.OnError != nil {
		s.config.OnError(fmt.Errorf("max reconnect attempts (%d) reached", s.config.MaxReconnectAttempts))
	}
}

func (s *Stream) resubscribe() {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, msg := range s.subscriptions {
		if err := s.sendMessage(msg); err != nil {
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("resubscribe failed: %w", err))
			}
		}
	}
}
