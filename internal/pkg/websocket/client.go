package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Client is one STOMP session on a WebSocket connection
type Client struct {
	id       string
	username string
	conn     *websocket.Conn
	hub      *Hub
	handler  *MessageHandler

	// Frames routed by the hub. Only the hub writes to or closes it.
	send chan []byte

	// Frames produced by this session's read loop.
	replies chan []byte

	// Closed when the read loop exits.
	stop chan struct{}

	// Closed when the write pump exits.
	writerDone chan struct{}

	mu            sync.Mutex
	subscriptions map[string]string // subscription id -> destination

	logger zerolog.Logger
}

func newClient(conn *websocket.Conn, username string, hub *Hub, handler *MessageHandler, sendBuffer int, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:            id,
		username:      username,
		conn:          conn,
		hub:           hub,
		handler:       handler,
		send:          make(chan []byte, sendBuffer),
		replies:       make(chan []byte, sendBuffer),
		stop:          make(chan struct{}),
		writerDone:    make(chan struct{}),
		subscriptions: make(map[string]string),
		logger:        logger.With().Str("sessionID", id).Str("username", username).Logger(),
	}
}

func (c *Client) subscribe(id, destination string) {
	c.mu.Lock()
	c.subscriptions[id] = destination
	c.mu.Unlock()
}

func (c *Client) unsubscribe(id string) {
	c.mu.Lock()
	delete(c.subscriptions, id)
	c.mu.Unlock()
}

// frames renders body as one MESSAGE per subscription to destination.
func (c *Client) frames(destination string, body []byte) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [][]byte
	for subID, dest := range c.subscriptions {
		if dest != destination {
			continue
		}
		data, err := encodeFrame(messageFrame(destination, subID, uuid.NewString(), body))
		if err != nil {
			c.logger.Error().Err(err).Str("destination", destination).Msg("Failed to encode MESSAGE frame")
			continue
		}
		out = append(out, data)
	}
	return out
}

// deliver is called by the hub. It reports false when the send buffer is full.
func (c *Client) deliver(destination string, body []byte) bool {
	for _, data := range c.frames(destination, body) {
		select {
		case c.send <- data:
		default:
			return false
		}
	}
	return true
}

// reply queues a frame produced by the read loop.
func (c *Client) reply(f *frame.Frame) {
	data, err := encodeFrame(f)
	if err != nil {
		c.logger.Error().Err(err).Str("command", f.Command).Msg("Failed to encode reply frame")
		return
	}
	select {
	case c.replies <- data:
	case <-c.writerDone:
	}
}

// replyTo queues body for this session's own subscriptions to destination.
func (c *Client) replyTo(destination string, body []byte) {
	for _, data := range c.frames(destination, body) {
		select {
		case c.replies <- data:
		case <-c.writerDone:
			return
		}
	}
}

// readPump processes frames until the peer disconnects or violates the protocol.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// Don't log normal close conditions as warnings
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Warn().Err(err).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Msg("WebSocket read ended")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		frames, err := decodeFrames(data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Malformed STOMP frame")
			c.reply(errorFrame("malformed frame"))
			return
		}
		for _, f := range frames {
			if !c.handleFrame(ctx, f) {
				return
			}
		}
	}
}

// handleFrame processes one client frame and reports whether the session continues.
func (c *Client) handleFrame(ctx context.Context, f *frame.Frame) bool {
	switch f.Command {
	case frame.SUBSCRIBE:
		id := f.Header.Get(frame.Id)
		dest := f.Header.Get(frame.Destination)
		if id == "" || !subscribable(dest) {
			c.logger.Warn().Str("destination", dest).Msg("Rejected subscription")
			c.reply(errorFrame("cannot subscribe to " + dest))
			return false
		}
		c.subscribe(id, dest)
		c.logger.Debug().Str("subscriptionID", id).Str("destination", dest).Msg("Subscribed")

	case frame.UNSUBSCRIBE:
		c.unsubscribe(f.Header.Get(frame.Id))

	case frame.SEND:
		dest := f.Header.Get(frame.Destination)
		if dest != PrivateMessageDest {
			c.logger.Debug().Str("destination", dest).Msg("No handler for destination")
			break
		}
		c.handler.HandlePrivateMessage(ctx, c, f.Body)

	case frame.DISCONNECT:
		if receipt, ok := f.Header.Contains(frame.Receipt); ok {
			c.reply(receiptFrame(receipt))
		}
		return false

	case frame.CONNECT, frame.STOMP:
		c.reply(errorFrame("already connected"))
		return false

	default:
		// ACK, NACK and transactions are accepted and ignored.
	}

	if receipt, ok := f.Header.Contains(frame.Receipt); ok {
		c.reply(receiptFrame(receipt))
	}
	return true
}

// writePump pumps frames from the hub and the read loop to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
		c.conn.Close()
	}()

	write := func(data []byte) bool {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(websocket.TextMessage, data) == nil
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				// The hub closed the channel
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if !write(data) {
				return
			}
		case data := <-c.replies:
			if !write(data) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.stop:
			c.flushReplies(write)
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flushReplies writes queued replies such as a final RECEIPT or ERROR.
func (c *Client) flushReplies(write func([]byte) bool) {
	for {
		select {
		case data := <-c.replies:
			if !write(data) {
				return
			}
		default:
			return
		}
	}
}
