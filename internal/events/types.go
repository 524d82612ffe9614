package events

// Wire vocabulary for the socket protocol. Every inbound message carries one
// of the Cmd* types; every outbound message carries one of the Event* types.

// Client to server commands
const (
	CmdRegister          = "register"
	CmdCreatePoll        = "create_poll"
	CmdSubmitAnswer      = "submit_answer"
	CmdEndPoll           = "end_poll"
	CmdRemoveParticipant = "remove_participant"
	CmdSendMessage       = "send_message"
	CmdGetMessages       = "get_messages"
	CmdGetParticipants   = "get_participants"
)

// Server to client events
const (
	EventRegistrationSuccess = "registration_success"
	EventNewQuestion         = "new_question"
	EventAnswerSubmitted     = "answer_submitted"
	EventLiveResults         = "live_results"
	EventPollEnded           = "poll_ended"
	EventUpdateStudents      = "update_students"
	EventKickedOut           = "kicked_out"
	EventNewMessage          = "new_message"
	EventAllMessages         = "all_messages"
	EventParticipantsUpdated = "participants_updated"
	EventError               = "error"
)
