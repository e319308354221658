package session

// eventKind discriminates the inbound events a session controller
// processes. All event sources (clock ticks, transcription fragments,
// user actions) post through the same ordered queue; the controller
// drains it one event at a time, so no two transitions ever interleave.
type eventKind int

const (
	kindStart eventKind = iota
	kindTick
	kindEdit
	kindFragment
	kindSubmit
	kindDraftSave
	kindTranscription
	kindFeedbackAck
	kindCancel
)

// event is the envelope flowing through a session's queue. Only the
// fields relevant to the kind are set.
type event struct {
	kind eventKind

	// tick payload
	epoch     uint64
	remaining int

	// edit / fragment payload
	text string

	// reply, when non-nil, receives the outcome of processing the
	// event. Buffered with capacity 1 so the loop never blocks on it.
	reply chan error
}

// replyTo delivers err to the event's reply channel, if any.
func replyTo(e event, err error) {
	if e.reply != nil {
		e.reply <- err
	}
}
