package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/app/presence"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
)

const testSecret = "websocket-test-secret-0123456789abcdef"

type userSet map[string]bool

func (u userSet) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return u[username], nil
}

type fakeSender struct {
	mu        sync.Mutex
	next      int64
	err       error
	delivered []int64
}

func (s *fakeSender) SendPrivateMessage(_ context.Context, sender string, req dto.PrivateMessageRequest) (*dto.PrivateMessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.next++
	return &dto.PrivateMessageResponse{
		ID:        s.next,
		Sender:    sender,
		Receiver:  req.Receiver,
		Content:   req.Content,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (s *fakeSender) MarkAsDelivered(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, id)
	return nil
}

func (s *fakeSender) deliveredIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.delivered...)
}

type testEnv struct {
	url      string
	tokens   *auth.JWTService
	presence *presence.Tracker
	sender   *fakeSender
}

func newTestEnv(t *testing.T, users ...string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := userSet{}
	for _, u := range users {
		dir[u] = true
	}
	env := &testEnv{
		tokens:   auth.NewJWTService(auth.JWTConfig{SecretKey: testSecret, Expiration: time.Hour, TokenIssuer: "test"}),
		presence: presence.NewTracker(),
		sender:   &fakeSender{},
	}

	logger := zerolog.Nop()
	hub := NewHub(env.presence, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	handler := NewHandler(hub,
		NewAuthenticator(env.tokens, dir),
		NewMessageHandler(env.sender, hub, logger),
		HandlerConfig{HandshakeTimeout: 2 * time.Second},
		logger)

	r := gin.New()
	r.GET("/ws", handler.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	env.url = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return env
}

func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(username, "USER")
	require.NoError(t, err)
	return token
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{Subprotocols: Subprotocols, HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, f *frame.Frame) {
	t.Helper()
	data, err := encodeFrame(f)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readFrame(t *testing.T, conn *websocket.Conn) *frame.Frame {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		frames, err := decodeFrames(data)
		require.NoError(t, err)
		if len(frames) > 0 {
			return frames[0]
		}
	}
}

func connectFrame(authorization string) *frame.Frame {
	f := frame.New(frame.CONNECT, frame.AcceptVersion, "1.1,1.2", frame.Host, "localhost")
	if authorization != "" {
		f.Header.Add("Authorization", authorization)
	}
	return f
}

// connect opens an authenticated session and subscribes to each destination.
func connect(t *testing.T, env *testEnv, username string, destinations ...string) *websocket.Conn {
	t.Helper()
	conn := dial(t, env.url)
	writeFrame(t, conn, connectFrame("Bearer "+env.token(t, username)))

	connected := readFrame(t, conn)
	require.Equal(t, frame.CONNECTED, connected.Command)
	assert.Equal(t, "1.2", connected.Header.Get(frame.Version))
	assert.Equal(t, username, connected.Header.Get("user-name"))

	for i, dest := range destinations {
		id := "sub-" + string(rune('0'+i))
		writeFrame(t, conn, frame.New(frame.SUBSCRIBE, frame.Id, id, frame.Destination, dest, frame.Receipt, id))
		waitFor(t, conn, func(f *frame.Frame) bool {
			return f.Command == frame.RECEIPT && f.Header.Get(frame.ReceiptId) == id
		})
	}
	return conn
}

func waitFor(t *testing.T, conn *websocket.Conn, match func(*frame.Frame) bool) *frame.Frame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if match(f) {
			return f
		}
	}
}

func presenceOf(username string, status dto.PresenceStatus) func(*frame.Frame) bool {
	return func(f *frame.Frame) bool {
		if f.Command != frame.MESSAGE || f.Header.Get(frame.Destination) != PresenceTopic {
			return false
		}
		var ev dto.PresenceEvent
		return json.Unmarshal(f.Body, &ev) == nil && ev.Username == username && ev.Status == status
	}
}

func expectPolicyClose(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestConnect_PresenceLifecycle(t *testing.T) {
	env := newTestEnv(t, "alice", "bob")

	alice := connect(t, env, "alice", PresenceTopic)
	assert.Eventually(t, func() bool { return env.presence.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	bob := connect(t, env, "bob")
	waitFor(t, alice, presenceOf("bob", dto.PresenceOnline))
	assert.True(t, env.presence.IsOnline("bob"))

	writeFrame(t, bob, frame.New(frame.DISCONNECT, frame.Receipt, "bye"))
	receipt := waitFor(t, bob, func(f *frame.Frame) bool { return f.Command == frame.RECEIPT })
	assert.Equal(t, "bye", receipt.Header.Get(frame.ReceiptId))

	waitFor(t, alice, presenceOf("bob", dto.PresenceOffline))
	assert.False(t, env.presence.IsOnline("bob"))
}

func TestPrivateMessage_DeliveredToBothParties(t *testing.T) {
	env := newTestEnv(t, "alice", "bob")

	alice := connect(t, env, "alice", PrivateQueue)
	bob := connect(t, env, "bob", PrivateQueue)

	send := frame.New(frame.SEND, frame.Destination, PrivateMessageDest, frame.ContentType, "application/json")
	send.Body = []byte(`{"receiver":"bob","content":"hi bob"}`)
	writeFrame(t, alice, send)

	for _, conn := range []*websocket.Conn{bob, alice} {
		f := waitFor(t, conn, func(f *frame.Frame) bool {
			return f.Command == frame.MESSAGE && f.Header.Get(frame.Destination) == PrivateQueue
		})
		var msg dto.PrivateMessageResponse
		require.NoError(t, json.Unmarshal(f.Body, &msg))
		assert.Equal(t, "alice", msg.Sender)
		assert.Equal(t, "bob", msg.Receiver)
		assert.Equal(t, "hi bob", msg.Content)
		assert.True(t, msg.Delivered)
	}
	assert.Equal(t, []int64{1}, env.sender.deliveredIDs())
}

func TestPrivateMessage_FailureGoesToErrorQueue(t *testing.T) {
	env := newTestEnv(t, "alice")
	env.sender.err = apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found: ghost")

	alice := connect(t, env, "alice", ErrorQueue)

	send := frame.New(frame.SEND, frame.Destination, PrivateMessageDest)
	send.Body = []byte(`{"receiver":"ghost","content":"hello?"}`)
	writeFrame(t, alice, send)

	f := waitFor(t, alice, func(f *frame.Frame) bool { return f.Command == frame.MESSAGE })
	assert.Equal(t, ErrorQueue, f.Header.Get(frame.Destination))

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(f.Body, &body))
	assert.Equal(t, 404, body.Status)
	assert.Equal(t, "User not found: ghost", body.Message)

	// The session survives the failure.
	writeFrame(t, alice, frame.New(frame.SUBSCRIBE, frame.Id, "p", frame.Destination, PresenceTopic, frame.Receipt, "still-here"))
	waitFor(t, alice, func(f *frame.Frame) bool { return f.Command == frame.RECEIPT })
}

func TestPrivateMessage_MalformedPayload(t *testing.T) {
	env := newTestEnv(t, "alice")
	alice := connect(t, env, "alice", ErrorQueue)

	send := frame.New(frame.SEND, frame.Destination, PrivateMessageDest)
	send.Body = []byte(`not json`)
	writeFrame(t, alice, send)

	f := waitFor(t, alice, func(f *frame.Frame) bool { return f.Command == frame.MESSAGE })
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(f.Body, &body))
	assert.Equal(t, 400, body.Status)
}

func TestConnect_Rejected(t *testing.T) {
	env := newTestEnv(t, "alice")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"not bearer", "Basic YWxpY2U6c2VjcmV0"},
		{"expired token", "Bearer " + expired},
		{"garbage token", "Bearer not-a-jwt"},
		{"unknown user", "Bearer " + env.token(t, "mallory")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, env.url)
			writeFrame(t, conn, connectFrame(tt.authorization))
			expectPolicyClose(t, conn)
		})
	}
	assert.False(t, env.presence.IsOnline("alice"))
	assert.False(t, env.presence.IsOnline("mallory"))
}

func TestConnect_FirstFrameMustBeConnect(t *testing.T) {
	env := newTestEnv(t, "alice")
	conn := dial(t, env.url)
	writeFrame(t, conn, frame.New(frame.SUBSCRIBE, frame.Id, "0", frame.Destination, PresenceTopic))
	expectPolicyClose(t, conn)
}

func TestSubscribe_UnknownDestination(t *testing.T) {
	env := newTestEnv(t, "alice")
	alice := connect(t, env, "alice")

	writeFrame(t, alice, frame.New(frame.SUBSCRIBE, frame.Id, "0", frame.Destination, "/topic/secret"))
	f := readFrame(t, alice)
	assert.Equal(t, frame.ERROR, f.Command)
}

func TestHub_PresenceCountsSessions(t *testing.T) {
	tracker := presence.NewTracker()
	hub := NewHub(tracker, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := newClient(nil, "alice", hub, nil, 4, zerolog.Nop())
	second := newClient(nil, "alice", hub, nil, 4, zerolog.Nop())

	require.True(t, hub.Register(first))
	require.True(t, hub.Register(second))
	assert.Eventually(t, func() bool { return tracker.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	hub.Unregister(first)
	// A later round trip through the hub orders after the unregister.
	hub.Unregister(first)
	assert.True(t, tracker.IsOnline("alice"))

	hub.Unregister(second)
	assert.Eventually(t, func() bool { return !tracker.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	_, open := <-first.send
	assert.False(t, open)
}

func TestHub_StopClosesSessions(t *testing.T) {
	hub := NewHub(presence.NewTracker(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := newClient(nil, "alice", hub, nil, 4, zerolog.Nop())
	require.True(t, hub.Register(c))
	cancel()

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, hub.Register(newClient(nil, "bob", hub, nil, 4, zerolog.Nop())))
}
