package server

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"classpoll/config"
	"classpoll/internal/chat"
	"classpoll/internal/domain"
	"classpoll/internal/events"
	"classpoll/internal/poll"
)

// inboundCommand is one decoded client frame awaiting dispatch.
type inboundCommand struct {
	client *Client
	env    events.Envelope
}

// Hub owns every connected client and all poll, registry, and chat state.
// Its Run loop is the single coordinator: registrations, disconnects, client
// commands, and deferred timer fires are handled one at a time, so the
// controller and chat log below it need no locking.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundCommand
	tasks      chan func()
	controller *poll.Controller
	chatLog    *chat.Log
	logger     *WebSocketLogger
	stopChan   chan struct{}
}

// NewHub wires a hub with its controller. The hub doubles as the
// controller's broadcast gateway and timer scheduler.
func NewHub(cfg *config.Config) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		inbound:    make(chan inboundCommand, 256),
		tasks:      make(chan func(), 64),
		chatLog:    chat.NewLog(cfg.ChatHistoryMax),
		logger:     NewWebSocketLogger(),
		stopChan:   make(chan struct{}),
	}
	h.controller = poll.NewController(poll.NewRegistry(), h, h, poll.Config{
		DefaultTimeLimit: time.Duration(cfg.DefaultTimeLimit) * time.Second,
	})
	return h
}

// Run drains all event sources until Stop. Every handler runs to completion
// before the next event is taken.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleConnect(client)

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case cmd := <-h.inbound:
			h.dispatch(cmd)

		case fn := <-h.tasks:
			fn()

		case <-h.stopChan:
			for _, client := range h.clients {
				h.closeClient(client)
			}
			return
		}
	}
}

// Stop shuts the hub down; Run tears every client down on its way out.
func (h *Hub) Stop() {
	close(h.stopChan)
}

func (h *Hub) handleConnect(client *Client) {
	h.clients[client.id] = client
	h.logger.Info("client connected", client.id)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleDisconnect(client *Client) {
	if _, ok := h.clients[client.id]; !ok {
		// already torn down, e.g. by a kick
		return
	}
	if client.registered {
		h.controller.HandleDisconnect(client.id)
	}
	h.closeClient(client)
	h.logger.Info("client disconnected", client.id)
}

// closeClient removes the client and closes its send channel. writePump
// drains whatever is still queued, then writes the close frame.
func (h *Hub) closeClient(client *Client) {
	delete(h.clients, client.id)
	close(client.send)
}

func (h *Hub) dispatch(cmd inboundCommand) {
	client := cmd.client
	if _, ok := h.clients[client.id]; !ok {
		// frame queued by a connection that has since been torn down
		return
	}

	switch cmd.env.Type {
	case events.CmdRegister:
		h.handleRegister(client, cmd.env.Data)

	case events.CmdCreatePoll:
		var p events.CreatePollPayload
		if !h.decode(client, cmd.env, &p) {
			return
		}
		if err := h.controller.CreatePoll(client.id, p.Question, p.Options, p.TimeLimit); err != nil {
			h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: err.Error()})
		}

	case events.CmdSubmitAnswer:
		var p events.SubmitAnswerPayload
		if !h.decode(client, cmd.env, &p) {
			return
		}
		// rejected submissions are expected races, dropped without a reply
		if err := h.controller.SubmitAnswer(client.id, p.Answer); err != nil {
			h.logger.Info("submission ignored", client.id, zap.Error(err))
		}

	case events.CmdEndPoll:
		if err := h.controller.EndPoll(client.id); err != nil {
			h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: err.Error()})
		}

	case events.CmdRemoveParticipant:
		var p events.RemoveParticipantPayload
		if !h.decode(client, cmd.env, &p) {
			return
		}
		removed, err := h.controller.RemoveParticipant(client.id, p.ParticipantID)
		if err != nil {
			h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: err.Error()})
			return
		}
		if removed {
			// the terminal kicked_out frame is already queued; closing the
			// send channel lets it flush before the connection drops
			if target, ok := h.clients[p.ParticipantID]; ok {
				h.closeClient(target)
			}
		}

	case events.CmdSendMessage:
		var p events.SendMessagePayload
		if !h.decode(client, cmd.env, &p) {
			return
		}
		if p.Text == "" {
			return
		}
		msg := h.chatLog.Append(p.Sender, p.Role, p.Text)
		h.Broadcast(events.EventNewMessage, msg)

	case events.CmdGetMessages:
		h.Unicast(client.id, events.EventAllMessages, h.chatLog.All())

	case events.CmdGetParticipants:
		h.Unicast(client.id, events.EventParticipantsUpdated, h.controller.Roster())

	default:
		h.logger.Warn("unknown command", client.id, zap.String("command", cmd.env.Type))
	}
}

func (h *Hub) handleRegister(client *Client, data json.RawMessage) {
	var p events.RegisterPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Name == "" {
		h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: "name is required"})
		return
	}
	if p.Role == "" {
		p.Role = domain.RoleStudent
	}
	if !p.Role.Valid() {
		h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: "role must be student or teacher"})
		return
	}
	h.controller.Register(client.id, p.Name, p.Role)
	client.registered = true
}

func (h *Hub) decode(client *Client, env events.Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		h.logger.Warn("malformed payload", client.id,
			zap.String("command", env.Type), zap.Error(err))
		h.Unicast(client.id, events.EventError, events.ErrorPayload{Message: "malformed payload"})
		return false
	}
	return true
}

// Broadcast implements poll.Gateway. Only called from the run loop.
func (h *Hub) Broadcast(eventType string, payload any) {
	data, err := events.Marshal(eventType, payload)
	if err != nil {
		h.logger.Warn("broadcast marshal failed", "", zap.String("event", eventType), zap.Error(err))
		return
	}
	for _, client := range h.clients {
		h.push(client, data)
	}
}

// Unicast implements poll.Gateway. A missing target is a dropped frame, not
// an error: the participant may have disconnected between queue and dispatch.
func (h *Hub) Unicast(participantID, eventType string, payload any) {
	client, ok := h.clients[participantID]
	if !ok {
		return
	}
	data, err := events.Marshal(eventType, payload)
	if err != nil {
		h.logger.Warn("unicast marshal failed", participantID, zap.String("event", eventType), zap.Error(err))
		return
	}
	h.push(client, data)
}

func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client send buffer full", client.id)
	}
}

// AfterFunc implements poll.Scheduler. The callback re-enters the run loop
// through the tasks channel, so a timer fire is serialized like any other
// event instead of racing the loop.
func (h *Hub) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case h.tasks <- fn:
		case <-h.stopChan:
		}
	})
}
