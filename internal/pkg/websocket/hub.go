package websocket

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models/dto"
)

// PresenceTracker records which users are online
type PresenceTracker interface {
	Connect(username string) bool
	Disconnect(username string) bool
	ListOnline() []string
}

// delivery is a payload for a destination. A nil users slice addresses
// every session.
type delivery struct {
	users       []string
	destination string
	body        []byte
}

// Hub maintains the set of authenticated sessions and routes payloads to
// their subscriptions.
type Hub struct {
	// Live sessions per username
	sessions map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	outbound   chan delivery
	done       chan struct{}

	presence PresenceTracker
	logger   zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(presence PresenceTracker, logger zerolog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, 256),
		done:       make(chan struct{}),
		presence:   presence,
		logger:     logger,
	}
}

// Run owns the session registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.outbound:
			h.deliver(d)

		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					close(client.send)
				}
			}
			h.sessions = map[string]map[*Client]struct{}{}
			h.logger.Info().Msg("WebSocket hub stopped")
			return
		}
	}
}

// Register adds an authenticated client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUsers queues body for the destination subscriptions of each user.
func (h *Hub) SendToUsers(destination string, body []byte, users ...string) {
	h.enqueue(delivery{users: users, destination: destination, body: body})
}

// Broadcast queues body for every subscription to destination.
func (h *Hub) Broadcast(destination string, body []byte) {
	h.enqueue(delivery{destination: destination, body: body})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	clients, ok := h.sessions[client.username]
	if !ok {
		clients = make(map[*Client]struct{})
		h.sessions[client.username] = clients
	}
	clients[client] = struct{}{}

	h.logger.Info().
		Str("username", client.username).
		Str("sessionID", client.id).
		Int("sessions", len(clients)).
		Msg("Client registered")

	if len(clients) == 1 {
		h.presence.Connect(client.username)
		h.logger.Info().Strs("onlineUsers", h.presence.ListOnline()).Msg("Online users")
		h.deliver(presenceDelivery(client.username, dto.PresenceOnline))
	}
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.username]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	h.logger.Info().
		Str("username", client.username).
		Str("sessionID", client.id).
		Int("sessions", len(clients)).
		Msg("Client unregistered")

	if len(clients) == 0 {
		delete(h.sessions, client.username)
		h.presence.Disconnect(client.username)
		h.logger.Info().Strs("onlineUsers", h.presence.ListOnline()).Msg("Online users")
		h.deliver(presenceDelivery(client.username, dto.PresenceOffline))
	}
}

func (h *Hub) deliver(d delivery) {
	var targets []*Client
	if d.users == nil {
		for _, clients := range h.sessions {
			for c := range clients {
				targets = append(targets, c)
			}
		}
	} else {
		seen := map[string]bool{}
		for _, u := range d.users {
			if seen[u] {
				continue
			}
			seen[u] = true
			for c := range h.sessions[u] {
				targets = append(targets, c)
			}
		}
	}

	for _, c := range targets {
		// May have been dropped while delivering to an earlier target.
		if _, live := h.sessions[c.username][c]; !live {
			continue
		}
		if !c.deliver(d.destination, d.body) {
			// Send buffer full; the client is too slow to keep.
			h.logger.Warn().Str("username", c.username).Str("sessionID", c.id).Msg("Dropping slow client")
			h.unregisterClient(c)
		}
	}
}

func presenceDelivery(username string, status dto.PresenceStatus) delivery {
	body, _ := json.Marshal(dto.PresenceEvent{Username: username, Status: status})
	return delivery{destination: PresenceTopic, body: body}
}
