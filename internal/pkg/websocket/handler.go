package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var errUnsupportedVersion = errors.New("no supported STOMP version offered")

// HandlerConfig tunes the STOMP endpoint.
type HandlerConfig struct {
	AllowedOrigins   []string
	SendBuffer       int
	HandshakeTimeout time.Duration
}

// Handler for WebSocket connections
type Handler struct {
	hub              *Hub
	authenticator    *Authenticator
	messages         *MessageHandler
	upgrader         websocket.Upgrader
	handshakeTimeout time.Duration
	sendBuffer       int
	logger           zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authenticator *Authenticator, messages *MessageHandler, cfg HandlerConfig, logger zerolog.Logger) *Handler {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Handler{
		hub:           hub,
		authenticator: authenticator,
		messages:      messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    Subprotocols,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		handshakeTimeout: cfg.HandshakeTimeout,
		sendBuffer:       cfg.SendBuffer,
		logger:           logger,
	}
}

// originChecker allows requests without an Origin header and those whose
// origin is listed. "*" allows every origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// ServeWS upgrades the request and runs one STOMP session. The session is
// authenticated by the Authorization header of its CONNECT frame.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written an HTTP error
		h.logger.Warn().Err(err).Str("remoteAddr", c.ClientIP()).Msg("WebSocket upgrade failed")
		return
	}
	h.serve(context.WithoutCancel(c.Request.Context()), conn)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn) {
	username, version, err := h.handshake(ctx, conn)
	if err != nil {
		h.logger.Warn().Err(err).Str("remoteAddr", conn.RemoteAddr().String()).Msg("STOMP CONNECT rejected")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	data, err := encodeFrame(connectedFrame(version, username))
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("username", username).Msg("Failed to send CONNECTED frame")
		conn.Close()
		return
	}

	client := newClient(conn, username, h.hub, h.messages, h.sendBuffer, h.logger)
	go client.writePump()

	if !h.hub.Register(client) {
		close(client.stop)
		return
	}
	client.readPump(ctx)

	// Let the write pump flush final replies before the hub closes send.
	close(client.stop)
	h.hub.Unregister(client)
}

// handshake waits for the CONNECT frame and authenticates it.
func (h *Handler) handshake(ctx context.Context, conn *websocket.Conn) (string, string, error) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.handshakeTimeout)); err != nil {
		return "", "", err
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", "", fmt.Errorf("waiting for CONNECT: %w", err)
		}
		frames, err := decodeFrames(data)
		if err != nil {
			return "", "", fmt.Errorf("malformed CONNECT frame: %w", err)
		}
		if len(frames) == 0 {
			continue // heart-beat
		}

		f := frames[0]
		if f.Command != frame.CONNECT && f.Command != frame.STOMP {
			return "", "", fmt.Errorf("expected CONNECT, got %s", f.Command)
		}
		version, ok := negotiateVersion(f.Header.Get(frame.AcceptVersion))
		if !ok {
			return "", "", errUnsupportedVersion
		}
		username, err := h.authenticator.Authenticate(ctx, authorizationHeader(f))
		if err != nil {
			return "", "", err
		}
		return username, version, nil
	}
}
