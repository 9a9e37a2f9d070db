package models

import "time"

// StudentSpeaker is the reserved speaker tag for the human participant.
const StudentSpeaker = "student"

// Discussion session lifecycle states.
const (
	DiscussionActive    = "active"
	DiscussionCompleted = "completed"
)

// Turn action classifications.
const (
	ActionSpeaks     = "speaks"
	ActionInterrupts = "interrupts"
	ActionAgrees     = "agrees"
	ActionDisagrees  = "disagrees"
)

// Participant is a simulated discussion agent with a fixed personality
// profile. Participants are value objects: the shared roster template is
// copied into each session at creation and never shared by reference.
type Participant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Personality string   `json:"personality"`
	Traits      []string `json:"traits"`
	SpeechStyle string   `json:"speech_style"`
	// ResponseWeight is the per-turn probability that this participant
	// responds to a student message.
	ResponseWeight float64 `json:"-"`
}

// Turn is one message in a discussion's conversation history.
type Turn struct {
	Speaker     string    `json:"speaker"`
	SpeakerName string    `json:"speaker_name,omitempty"`
	Message     string    `json:"message"`
	Action      string    `json:"action,omitempty"`
	Personality string    `json:"personality,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Interrupted bool      `json:"interrupted,omitempty"`
}

// BehaviorTracking holds counters and flags derived from the turn sequence.
// Counters only ever increase while a session is active.
type BehaviorTracking struct {
	StudentSpeaksCount      int      `json:"student_speaks_count"`
	StudentInitiated        bool     `json:"student_initiated"`
	StudentInterruptions    int      `json:"student_interruptions"`
	StudentInterruptedCount int      `json:"student_interrupted_count"`
	StudentSummarized       bool     `json:"student_summarized"`
	StudentConcluded        bool     `json:"student_concluded"`
	ConversationHistory     []Turn   `json:"conversation_history"`
	TurnOrder               []string `json:"turn_order"`
}

// DiscussionSession is the live state of a group discussion held in the
// session store.
type DiscussionSession struct {
	ID           string           `json:"gd_id"`
	UserID       string           `json:"user_id"`
	Mode         InterviewMode    `json:"mode"`
	Topic        string           `json:"topic"`
	Participants []Participant    `json:"ai_participants"`
	Tracking     BehaviorTracking `json:"behavior_tracking"`
	StartedAt    time.Time        `json:"started_at"`
	TurnCount    int              `json:"turn_count"`
	Status       string           `json:"status"`
}
