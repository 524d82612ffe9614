package server

import (
	"encoding/json"
	"testing"

	"classpoll/config"
	"classpoll/internal/domain"
	"classpoll/internal/events"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:          "8080",
		AppMode:          "test",
		AllowedOrigin:    "*",
		DefaultTimeLimit: 60,
		ChatHistoryMax:   100,
	}
}

// newTestClient fabricates a connected client without a real socket. The
// dispatch paths under test only ever touch the send channel.
func newTestClient(h *Hub, id string) *Client {
	c := &Client{
		hub:    h,
		send:   make(chan []byte, 64),
		id:     id,
		logger: NewWebSocketLogger(),
	}
	h.clients[id] = c
	return c
}

func command(t *testing.T, cmdType string, payload any) events.Envelope {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		data = raw
	}
	return events.Envelope{Type: cmdType, Data: data}
}

// frames drains and decodes everything queued for a client.
func frames(t *testing.T, c *Client) []events.Envelope {
	t.Helper()
	var out []events.Envelope
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			env, err := events.Decode(raw)
			if err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func framesOf(envs []events.Envelope, eventType string) []events.Envelope {
	var out []events.Envelope
	for _, e := range envs {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func registerClient(t *testing.T, h *Hub, id, name string, role domain.Role) *Client {
	t.Helper()
	c := newTestClient(h, id)
	h.dispatch(inboundCommand{client: c, env: command(t, events.CmdRegister, events.RegisterPayload{Name: name, Role: role})})
	if !c.registered {
		t.Fatalf("client %s did not register", id)
	}
	return c
}

func TestHubRegisterFlow(t *testing.T) {
	h := NewHub(testConfig())
	c := registerClient(t, h, "s1", "Alice", domain.RoleStudent)

	got := frames(t, c)
	if n := len(framesOf(got, events.EventRegistrationSuccess)); n != 1 {
		t.Errorf("registration_success frames = %d, want 1", n)
	}
	if n := len(framesOf(got, events.EventUpdateStudents)); n != 1 {
		t.Errorf("update_students frames = %d, want 1", n)
	}
	if n := len(framesOf(got, events.EventNewQuestion)); n != 0 {
		t.Errorf("new_question frames with no poll = %d, want 0", n)
	}
}

func TestHubRegisterRejectsBadPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"missing name", events.RegisterPayload{Role: domain.RoleStudent}},
		{"bad role", map[string]string{"name": "Eve", "role": "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub(testConfig())
			c := newTestClient(h, "x")
			h.dispatch(inboundCommand{client: c, env: command(t, events.CmdRegister, tt.payload)})

			if c.registered {
				t.Error("client registered despite invalid payload")
			}
			got := frames(t, c)
			if n := len(framesOf(got, events.EventError)); n != 1 {
				t.Errorf("error frames = %d, want 1", n)
			}
		})
	}
}

func TestHubRegisterDefaultsToStudent(t *testing.T) {
	h := NewHub(testConfig())
	c := newTestClient(h, "s1")
	h.dispatch(inboundCommand{client: c, env: command(t, events.CmdRegister, map[string]string{"name": "Ada"})})

	if !c.registered {
		t.Fatal("client did not register")
	}
	roster := h.controller.Roster()
	if len(roster) != 1 || roster[0].Role != domain.RoleStudent {
		t.Errorf("roster = %+v, want one student", roster)
	}
}

func TestHubPollRoundTrip(t *testing.T) {
	h := NewHub(testConfig())
	teacher := registerClient(t, h, "t1", "Teacher", domain.RoleTeacher)
	student := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, teacher)
	frames(t, student)

	h.dispatch(inboundCommand{client: teacher, env: command(t, events.CmdCreatePoll, events.CreatePollPayload{
		Question: "Color?", Options: []string{"Red", "Blue"}, TimeLimit: 60,
	})})
	if n := len(framesOf(frames(t, student), events.EventNewQuestion)); n != 1 {
		t.Fatalf("student new_question frames = %d, want 1", n)
	}

	h.dispatch(inboundCommand{client: student, env: command(t, events.CmdSubmitAnswer, events.SubmitAnswerPayload{Answer: "Red"})})

	got := frames(t, student)
	if n := len(framesOf(got, events.EventAnswerSubmitted)); n != 1 {
		t.Errorf("answer_submitted frames = %d, want 1", n)
	}
	if n := len(framesOf(got, events.EventLiveResults)); n != 1 {
		t.Errorf("live_results frames = %d, want 1", n)
	}
	// only student answered, poll completes
	if n := len(framesOf(got, events.EventPollEnded)); n != 1 {
		t.Errorf("poll_ended frames = %d, want 1", n)
	}
}

func TestHubCreatePollErrorGoesToRequesterOnly(t *testing.T) {
	h := NewHub(testConfig())
	teacher := registerClient(t, h, "t1", "Teacher", domain.RoleTeacher)
	student := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, teacher)
	frames(t, student)

	h.dispatch(inboundCommand{client: teacher, env: command(t, events.CmdCreatePoll, events.CreatePollPayload{
		Question: "", Options: []string{"Red", "Blue"},
	})})

	if n := len(framesOf(frames(t, teacher), events.EventError)); n != 1 {
		t.Errorf("teacher error frames = %d, want 1", n)
	}
	if n := len(frames(t, student)); n != 0 {
		t.Errorf("student frames = %d, want 0", n)
	}
}

func TestHubKickDeliversTerminalFrameThenCloses(t *testing.T) {
	h := NewHub(testConfig())
	teacher := registerClient(t, h, "t1", "Teacher", domain.RoleTeacher)
	student := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, teacher)
	frames(t, student)

	h.dispatch(inboundCommand{client: teacher, env: command(t, events.CmdRemoveParticipant, events.RemoveParticipantPayload{ParticipantID: "s1"})})

	if _, ok := h.clients["s1"]; ok {
		t.Error("kicked client still tracked by hub")
	}
	got := frames(t, student)
	if n := len(framesOf(got, events.EventKickedOut)); n != 1 {
		t.Errorf("kicked_out frames = %d, want 1", n)
	}
	// send channel must be closed after the terminal frame
	if _, ok := <-student.send; ok {
		t.Error("send channel still open after kick")
	}

	// a frame queued by the kicked connection is dropped, not dispatched
	h.dispatch(inboundCommand{client: student, env: command(t, events.CmdRegister, events.RegisterPayload{Name: "Alice", Role: domain.RoleStudent})})
	if len(h.controller.Roster()) != 1 {
		t.Error("kicked connection re-entered the roster")
	}
}

func TestHubChatRelay(t *testing.T) {
	h := NewHub(testConfig())
	teacher := registerClient(t, h, "t1", "Teacher", domain.RoleTeacher)
	student := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, teacher)
	frames(t, student)

	h.dispatch(inboundCommand{client: student, env: command(t, events.CmdSendMessage, events.SendMessagePayload{
		Sender: "Alice", Role: domain.RoleStudent, Text: "hello",
	})})

	for _, c := range []*Client{teacher, student} {
		got := framesOf(frames(t, c), events.EventNewMessage)
		if len(got) != 1 {
			t.Fatalf("new_message frames for %s = %d, want 1", c.id, len(got))
		}
		var msg domain.ChatMessage
		if err := json.Unmarshal(got[0].Data, &msg); err != nil {
			t.Fatalf("unmarshal chat message: %v", err)
		}
		if msg.Text != "hello" || msg.Sender != "Alice" {
			t.Errorf("message = %+v", msg)
		}
		if msg.Timestamp.IsZero() {
			t.Error("message missing server timestamp")
		}
	}

	h.dispatch(inboundCommand{client: teacher, env: command(t, events.CmdGetMessages, nil)})
	got := framesOf(frames(t, teacher), events.EventAllMessages)
	if len(got) != 1 {
		t.Fatalf("all_messages frames = %d, want 1", len(got))
	}
	var history []domain.ChatMessage
	if err := json.Unmarshal(got[0].Data, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}
}

func TestHubDisconnectReleasesRegistration(t *testing.T) {
	h := NewHub(testConfig())
	teacher := registerClient(t, h, "t1", "Teacher", domain.RoleTeacher)
	student := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, teacher)
	frames(t, student)

	h.handleDisconnect(student)

	if _, ok := h.clients["s1"]; ok {
		t.Error("disconnected client still tracked")
	}
	if len(h.controller.Roster()) != 1 {
		t.Errorf("roster = %+v, want teacher only", h.controller.Roster())
	}
	if n := len(framesOf(frames(t, teacher), events.EventUpdateStudents)); n != 1 {
		t.Errorf("update_students frames after disconnect = %d, want 1", n)
	}

	// second disconnect of the same client is a no-op
	h.handleDisconnect(student)
}

func TestHubUnknownCommandIgnored(t *testing.T) {
	h := NewHub(testConfig())
	c := registerClient(t, h, "s1", "Alice", domain.RoleStudent)
	frames(t, c)

	h.dispatch(inboundCommand{client: c, env: command(t, "warp_speed", nil)})

	if n := len(frames(t, c)); n != 0 {
		t.Errorf("frames after unknown command = %d, want 0", n)
	}
}
