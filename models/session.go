package models

import "time"

// InterviewCategory is the assessment category of a session.
type InterviewCategory string

const (
	CategoryHR        InterviewCategory = "hr"
	CategoryTechnical InterviewCategory = "technical"
	CategoryGD        InterviewCategory = "gd"
)

// Valid reports whether the category is one of the fixed enumeration.
func (c InterviewCategory) Valid() bool {
	switch c {
	case CategoryHR, CategoryTechnical, CategoryGD:
		return true
	}
	return false
}

// InterviewMode selects which auxiliary analyses are attached to a session.
type InterviewMode string

const (
	ModeText  InterviewMode = "text"
	ModeVoice InterviewMode = "voice"
	ModeVideo InterviewMode = "video"
)

func (m InterviewMode) Valid() bool {
	switch m {
	case ModeText, ModeVoice, ModeVideo:
		return true
	}
	return false
}

// InterviewTurnLimit is the fixed number of questions per interview session.
const InterviewTurnLimit = 5

// QAPair pairs a question with the answer that was given to it.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// InterviewSession is the live state of an interview held in the session
// store. Invariant while active: len(Answers) == len(Questions)-1; the
// newest question is always unanswered. The session is finished once the
// fifth question has been answered.
type InterviewSession struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Category        InterviewCategory    `json:"interview_type"`
	Mode            InterviewMode        `json:"mode"`
	Questions       []string             `json:"questions"`
	Answers         []string             `json:"answers"`
	QAPairs         []QAPair             `json:"qa_pairs"`
	Resume          *ResumeData          `json:"resume_data,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	EmotionAnalyses []map[string]float64 `json:"emotion_analyses"`
	VideoAnalyses   []VideoSummary       `json:"video_analyses"`
	Finished        bool                 `json:"is_finished"`
}

// ResumeData is the structured output of the resume parsing collaborator.
type ResumeData struct {
	Skills     []string    `json:"skills"`
	Education  []string    `json:"education"`
	Experience []string    `json:"experience"`
	Contact    ContactInfo `json:"contact_info"`
}

type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// VoiceSummary is the fixed-shape result of the audio analysis collaborator.
type VoiceSummary struct {
	Transcription  string             `json:"transcription"`
	Emotions       map[string]float64 `json:"emotions,omitempty"`
	SpeechFeatures map[string]float64 `json:"speech_features"`
}

// VideoSummary is the fixed-shape result of the video analysis collaborator.
type VideoSummary struct {
	EyeContact  float64            `json:"eye_contact"`
	Attention   float64            `json:"attention"`
	Expressions map[string]float64 `json:"facial_expressions"`
	FrameCount  int                `json:"frame_count"`
}
