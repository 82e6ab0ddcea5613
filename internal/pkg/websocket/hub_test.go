package websocket

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentdesk/student-api/internal/app/presence"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHub_LogsOnlineUsers(t *testing.T) {
	out := &syncBuffer{}
	logger := zerolog.New(out)
	hub := NewHub(presence.NewTracker(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newClient(nil, "alice", hub, nil, 4, logger)
	require.True(t, hub.Register(c))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"onlineUsers":["alice"],"message":"Online users"`)
	}, time.Second, 10*time.Millisecond)

	hub.Unregister(c)
	_, open := <-c.send
	assert.False(t, open)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"onlineUsers":[],"message":"Online users"`)
	}, time.Second, 10*time.Millisecond)
}
