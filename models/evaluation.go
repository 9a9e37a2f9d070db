package models

// EvaluationResult is the structured outcome of a session's final
// evaluation. Interview evaluations use a 0-100 scale with three named
// sub-scores; discussion evaluations use a 0-10 scale with five sub-scores
// plus role suitability and improvement suggestions. Produced once at
// session termination and immutable thereafter.
type EvaluationResult struct {
	OverallScore           float64            `json:"overall_score"`
	Scores                 map[string]float64 `json:"scores"`
	Strengths              []string           `json:"strengths"`
	Weaknesses             []string           `json:"weaknesses"`
	DetailedFeedback       string             `json:"detailed_feedback"`
	RoleSuitability        string             `json:"role_suitability,omitempty"`
	ImprovementSuggestions []string           `json:"improvement_suggestions,omitempty"`
}

// AnswerAnalysis is the per-answer evaluation of a single interview response.
type AnswerAnalysis struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// InterviewResult is the full payload returned when an interview ends, and
// the shape persisted to the durable store.
type InterviewResult struct {
	InterviewID      string             `json:"interview_id"`
	UserID           string             `json:"user_id"`
	Category         InterviewCategory  `json:"interview_type"`
	Mode             InterviewMode      `json:"mode"`
	OverallScore     float64            `json:"overall_score"`
	Scores           map[string]float64 `json:"scores"`
	Strengths        []string           `json:"strengths"`
	Weaknesses       []string           `json:"weaknesses"`
	DetailedFeedback string             `json:"detailed_feedback"`
	CreatedAt        string             `json:"created_at"`
}

// DiscussionResult is the full payload returned when a discussion ends.
type DiscussionResult struct {
	DiscussionID           string             `json:"gd_id"`
	UserID                 string             `json:"user_id"`
	Topic                  string             `json:"topic"`
	Mode                   InterviewMode      `json:"mode"`
	OverallScore           float64            `json:"overall_score"`
	Scores                 map[string]float64 `json:"scores"`
	Strengths              []string           `json:"strengths"`
	Weaknesses             []string           `json:"weaknesses"`
	RoleSuitability        string             `json:"role_suitability"`
	ImprovementSuggestions []string           `json:"improvement_suggestions"`
	BehaviorSummary        BehaviorTracking   `json:"behavior_summary"`
	DetailedFeedback       string             `json:"detailed_feedback"`
	CreatedAt              string             `json:"created_at"`
	CompletedAt            string             `json:"completed_at"`
}
