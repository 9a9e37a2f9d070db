package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"

	"github.com/google/uuid"
)

// statusHistoryTurns caps the conversation tail returned by Status.
const statusHistoryTurns = 10

// replyContextTurns caps the conversation tail fed to persona replies.
const replyContextTurns = 5

// newParticipants returns a fresh persona roster for one discussion.
// Each participant responds with its individual probability; the Leader
// also steps in whenever nobody else does.
func newParticipants() []models.Participant {
	return []models.Participant{
		{
			ID:             "leader",
			Name:           "Alex",
			Personality:    "Leader",
			Traits:         []string{"confident", "organized", "diplomatic"},
			SpeechStyle:    "Speaks clearly, summarizes points, guides discussion",
			ResponseWeight: 0.70,
		},
		{
			ID:             "aggressive",
			Name:           "Sam",
			Personality:    "Aggressive",
			Traits:         []string{"assertive", "dominant", "interrupting"},
			SpeechStyle:    "Interrupts often, challenges points, speaks loudly",
			ResponseWeight: 0.60,
		},
		{
			ID:             "logical",
			Name:           "Jordan",
			Personality:    "Logical",
			Traits:         []string{"analytical", "fact-based", "calm"},
			SpeechStyle:    "Uses data and examples, structured arguments",
			ResponseWeight: 0.65,
		},
		{
			ID:             "silent",
			Name:           "Riley",
			Personality:    "Silent Observer",
			Traits:         []string{"quiet", "thoughtful", "occasional"},
			SpeechStyle:    "Speaks rarely but makes impactful points",
			ResponseWeight: 0.25,
		},
	}
}

// DiscussionService orchestrates multi-persona group discussions. Each
// student message fans out to a probabilistic subset of personas whose
// replies come back in roster order.
type DiscussionService struct {
	sessions *SessionStore[models.DiscussionSession]
	results  *SessionStore[models.DiscussionResult]
	gateway  *Gateway
	repo     *repository.GORMRepository
	notify   func(sessionID string, turn models.Turn)

	rng   *rand.Rand
	rngMu sync.Mutex
}

func NewDiscussionService(gateway *Gateway, repo *repository.GORMRepository, src rand.Source) *DiscussionService {
	return &DiscussionService{
		sessions: NewSessionStore[models.DiscussionSession](),
		results:  NewSessionStore[models.DiscussionResult](),
		gateway:  gateway,
		repo:     repo,
		rng:      rand.New(src),
	}
}

// SetNotifier installs a callback invoked for every persona turn, used to
// stream turns to connected websocket clients.
func (s *DiscussionService) SetNotifier(notify func(sessionID string, turn models.Turn)) {
	s.notify = notify
}

func (s *DiscussionService) chance(p float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

// StartDiscussionResponse is the payload returned when a discussion opens.
type StartDiscussionResponse struct {
	DiscussionID string               `json:"gd_id"`
	Topic        string               `json:"topic"`
	Participants []models.Participant `json:"participants"`
	Message      string               `json:"message"`
}

// Start opens a discussion. An empty topic requests a generated one.
func (s *DiscussionService) Start(ctx context.Context, userID string, mode models.InterviewMode, topic string) (*StartDiscussionResponse, error) {
	if mode == "" {
		mode = models.ModeText
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = s.gateway.GenerateDiscussionTopic(ctx)
	}

	session := &models.DiscussionSession{
		ID:           uuid.New().String(),
		UserID:       userID,
		Mode:         mode,
		Topic:        topic,
		Participants: newParticipants(),
		StartedAt:    time.Now().UTC(),
		Status:       models.DiscussionActive,
	}
	s.sessions.Put(session.ID, session)
	s.persistRecord(ctx, session)

	slog.Info("Discussion started",
		"gd_id", session.ID,
		"user_id", userID,
		"topic", topic)

	return &StartDiscussionResponse{
		DiscussionID: session.ID,
		Topic:        topic,
		Participants: session.Participants,
		Message:      "Discussion started. You may speak first to take the lead.",
	}, nil
}

// SpeakResponse carries the persona replies to one student message.
type SpeakResponse struct {
	DiscussionID string                  `json:"gd_id"`
	Responses    []models.Turn           `json:"responses"`
	TurnCount    int                     `json:"turn_count"`
	Tracking     models.BehaviorTracking `json:"tracking"`
}

// Speak records the student's message and generates replies from the
// responding personas. Concurrent messages to one discussion are
// serialized by the store.
func (s *DiscussionService) Speak(ctx context.Context, userID, sessionID, message string, interrupting bool) (*SpeakResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	resp := &SpeakResponse{DiscussionID: sessionID}

	var snapshot models.DiscussionSession
	err := s.sessions.Mutate(sessionID, func(session *models.DiscussionSession) error {
		if !canAccess(userID, session.UserID) {
			return ErrUnauthorized
		}
		if session.Status != models.DiscussionActive {
			return fmt.Errorf("%w: discussion already completed", ErrInvalidInput)
		}

		s.recordStudentTurn(session, message, interrupting)

		var responders []models.Participant
		for _, participant := range session.Participants {
			if s.chance(participant.ResponseWeight) {
				responders = append(responders, participant)
			}
		}
		if len(responders) == 0 {
			// The Leader anchors the discussion: the student never
			// speaks into a void.
			responders = append(responders, session.Participants[0])
		}

		for _, participant := range responders {
			recent := session.Tracking.ConversationHistory
			if len(recent) > replyContextTurns {
				recent = recent[len(recent)-replyContextTurns:]
			}
			text, action := s.gateway.GenerateDiscussionResponse(ctx, participant, session.Topic, recent, message)

			turn := models.Turn{
				Speaker:     participant.ID,
				SpeakerName: participant.Name,
				Message:     text,
				Action:      action,
				Personality: participant.Personality,
				Timestamp:   time.Now().UTC(),
			}
			if action == models.ActionInterrupts {
				turn.Interrupted = true
				session.Tracking.StudentInterruptedCount++
			}

			session.Tracking.ConversationHistory = append(session.Tracking.ConversationHistory, turn)
			session.Tracking.TurnOrder = append(session.Tracking.TurnOrder, participant.ID)
			resp.Responses = append(resp.Responses, turn)

			if s.notify != nil {
				s.notify(sessionID, turn)
			}
		}

		// The student's turn plus every persona reply.
		session.TurnCount += 1 + len(resp.Responses)
		resp.TurnCount = session.TurnCount
		resp.Tracking = session.Tracking
		snapshot = *session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.updateRecord(ctx, &snapshot)
	return resp, nil
}

func (s *DiscussionService) recordStudentTurn(session *models.DiscussionSession, message string, interrupting bool) {
	tracking := &session.Tracking

	if tracking.StudentSpeaksCount == 0 && len(tracking.ConversationHistory) == 0 {
		tracking.StudentInitiated = true
	}
	tracking.StudentSpeaksCount++
	if interrupting {
		tracking.StudentInterruptions++
	}

	lower := strings.ToLower(message)
	if containsAnyPhrase(lower, "to summarize", "in summary", "summing up", "to sum up") {
		tracking.StudentSummarized = true
	}
	if containsAnyPhrase(lower, "to conclude", "in conclusion", "wrapping up", "final thought") {
		tracking.StudentConcluded = true
	}

	tracking.ConversationHistory = append(tracking.ConversationHistory, models.Turn{
		Speaker:     models.StudentSpeaker,
		SpeakerName: "You",
		Message:     message,
		Action:      models.ActionSpeaks,
		Timestamp:   time.Now().UTC(),
		Interrupted: interrupting,
	})
	tracking.TurnOrder = append(tracking.TurnOrder, models.StudentSpeaker)
}

func containsAnyPhrase(text string, phrases ...string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// End finishes the discussion and produces the evaluation, preferring the
// model's structured verdict and falling back to the behavior heuristic.
func (s *DiscussionService) End(ctx context.Context, userID, sessionID string) (*models.DiscussionResult, error) {
	var result *models.DiscussionResult
	var snapshot models.DiscussionSession

	err := s.sessions.Mutate(sessionID, func(session *models.DiscussionSession) error {
		if !canAccess(userID, session.UserID) {
			return ErrUnauthorized
		}

		evaluation, ok := s.gateway.EvaluateDiscussion(ctx, session.Topic, session.Tracking.ConversationHistory, session.Tracking)
		if !ok {
			evaluation = heuristicEvaluation(session.Tracking)
		}

		result = &models.DiscussionResult{
			DiscussionID:           session.ID,
			UserID:                 session.UserID,
			Topic:                  session.Topic,
			Mode:                   session.Mode,
			OverallScore:           evaluation.OverallScore,
			Scores:                 evaluation.Scores,
			Strengths:              evaluation.Strengths,
			Weaknesses:             evaluation.Weaknesses,
			RoleSuitability:        evaluation.RoleSuitability,
			ImprovementSuggestions: evaluation.ImprovementSuggestions,
			BehaviorSummary:        session.Tracking,
			DetailedFeedback:       evaluation.DetailedFeedback,
			CreatedAt:              session.StartedAt.Format(time.RFC3339),
			CompletedAt:            time.Now().UTC().Format(time.RFC3339),
		}
		session.Status = models.DiscussionCompleted
		snapshot = *session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.results.Put(sessionID, result)
	s.sessions.Delete(sessionID)
	s.completeRecord(ctx, &snapshot, result)

	slog.Info("Discussion ended",
		"gd_id", sessionID,
		"user_id", userID,
		"turns", snapshot.TurnCount,
		"overall_score", result.OverallScore)
	return result, nil
}

// heuristicEvaluation scores the student purely from tracked behavior.
// Used whenever no structured model evaluation is available, so the same
// behavior always yields the same scores.
func heuristicEvaluation(tracking models.BehaviorTracking) models.EvaluationResult {
	participation := math.Min(10, float64(tracking.StudentSpeaksCount*2))

	communication := 5.0
	if tracking.StudentSpeaksCount > 0 {
		communication = 7.0
	}

	leadership := 6.0
	if tracking.StudentInitiated {
		leadership += 2
	}
	if tracking.StudentSummarized {
		leadership += 2
	}

	const content, teamBehavior = 7.0, 7.0

	overall := (participation + communication + leadership + content + teamBehavior) / 5
	overall = math.Round(overall*10) / 10

	strengths := []string{"Participated in the discussion"}
	if tracking.StudentInitiated {
		strengths = append(strengths, "Took initiative by opening the discussion")
	}
	if tracking.StudentSummarized {
		strengths = append(strengths, "Summarized the discussion effectively")
	}

	var weaknesses []string
	if tracking.StudentSpeaksCount < 3 {
		weaknesses = append(weaknesses, "Spoke too few times; aim for more active participation")
	}
	if tracking.StudentInterruptedCount > tracking.StudentSpeaksCount {
		weaknesses = append(weaknesses, "Lost speaking turns to interruptions; hold your ground politely")
	}
	if len(weaknesses) == 0 {
		weaknesses = append(weaknesses, "Add more data points and examples to strengthen arguments")
	}

	role := "Observer"
	switch {
	case leadership >= 8:
		role = "Leader"
	case participation >= 8:
		role = "Team Player"
	}

	return models.EvaluationResult{
		OverallScore: overall,
		Scores: map[string]float64{
			"communication": communication,
			"content":       content,
			"participation": participation,
			"team_behavior": teamBehavior,
			"leadership":    leadership,
		},
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		RoleSuitability: role,
		ImprovementSuggestions: []string{
			"Practice structuring points as claim, reason, example",
			"Engage directly with other speakers' arguments",
			"Work toward summarizing and concluding discussions",
		},
		DetailedFeedback: "Evaluation based on observed participation behavior during the discussion.",
	}
}

// StatusResponse is a snapshot of a live discussion.
type StatusResponse struct {
	DiscussionID string                  `json:"gd_id"`
	Topic        string                  `json:"topic"`
	Status       string                  `json:"status"`
	TurnCount    int                     `json:"turn_count"`
	Participants []models.Participant    `json:"participants"`
	RecentTurns  []models.Turn           `json:"recent_turns"`
	Tracking     models.BehaviorTracking `json:"tracking"`
}

// Status reports the current state of a live discussion including the
// last few turns.
func (s *DiscussionService) Status(ctx context.Context, userID, sessionID string) (*StatusResponse, error) {
	var resp *StatusResponse
	err := s.sessions.Mutate(sessionID, func(session *models.DiscussionSession) error {
		if !canAccess(userID, session.UserID) {
			return ErrUnauthorized
		}

		recent := session.Tracking.ConversationHistory
		if len(recent) > statusHistoryTurns {
			recent = recent[len(recent)-statusHistoryTurns:]
		}

		resp = &StatusResponse{
			DiscussionID: session.ID,
			Topic:        session.Topic,
			Status:       session.Status,
			TurnCount:    session.TurnCount,
			Participants: session.Participants,
			RecentTurns:  recent,
			Tracking:     session.Tracking,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Results returns the evaluation of an ended discussion. Lookup order:
// the in-memory result cache, the live store (not ready), then the
// durable record, which survives restarts.
func (s *DiscussionService) Results(ctx context.Context, userID, sessionID string) (*models.DiscussionResult, error) {
	if result, ok := s.results.Get(sessionID); ok {
		return result, nil
	}
	if session, ok := s.sessions.Get(sessionID); ok {
		if !canAccess(userID, session.UserID) {
			return nil, ErrUnauthorized
		}
		return nil, ErrNotReady
	}

	if s.repo != nil {
		record, err := s.repo.GetRecord(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load discussion record: %w", err)
		}
		if record != nil && record.Kind == models.RecordKindDiscussion {
			if !canAccess(userID, record.UserID) {
				return nil, ErrUnauthorized
			}
			if record.Results == "" {
				return nil, ErrNotReady
			}
			var result models.DiscussionResult
			if err := json.Unmarshal([]byte(record.Results), &result); err != nil {
				return nil, fmt.Errorf("failed to decode discussion results: %w", err)
			}
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// History lists the caller's durable discussion records, newest first.
func (s *DiscussionService) History(ctx context.Context, userID string) ([]models.AssessmentRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	records, err := s.repo.QueryByOwner(ctx, models.RecordKindDiscussion, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discussion history: %w", err)
	}
	return records, nil
}

// DeleteHistory removes one of the caller's completed discussion records.
func (s *DiscussionService) DeleteHistory(ctx context.Context, userID, recordID string) error {
	if s.repo == nil {
		return ErrNotFound
	}
	record, err := s.repo.GetRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("failed to load discussion record: %w", err)
	}
	if record == nil || record.Kind != models.RecordKindDiscussion {
		return ErrNotFound
	}
	if !canAccess(userID, record.UserID) {
		return ErrUnauthorized
	}
	return s.repo.DeleteRecord(ctx, recordID)
}

func (s *DiscussionService) persistRecord(ctx context.Context, session *models.DiscussionSession) {
	if s.repo == nil {
		return
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		slog.Error("Failed to marshal discussion snapshot", "gd_id", session.ID, "error", err)
		return
	}
	record := &models.AssessmentRecord{
		ID:       session.ID,
		UserID:   session.UserID,
		Kind:     models.RecordKindDiscussion,
		Mode:     string(session.Mode),
		Topic:    session.Topic,
		Status:   models.RecordInProgress,
		Snapshot: string(snapshot),
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		slog.Error("Failed to persist discussion record", "gd_id", session.ID, "error", err)
	}
}

func (s *DiscussionService) updateRecord(ctx context.Context, session *models.DiscussionSession) {
	if s.repo == nil {
		return
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		slog.Error("Failed to marshal discussion snapshot", "gd_id", session.ID, "error", err)
		return
	}
	if err := s.repo.UpdateRecord(ctx, session.ID, map[string]interface{}{
		"snapshot": string(snapshot),
	}); err != nil {
		slog.Error("Failed to update discussion record", "gd_id", session.ID, "error", err)
	}
}

func (s *DiscussionService) completeRecord(ctx context.Context, session *models.DiscussionSession, result *models.DiscussionResult) {
	if s.repo == nil {
		return
	}
	results, err := json.Marshal(result)
	if err != nil {
		slog.Error("Failed to marshal discussion results", "gd_id", session.ID, "error", err)
		return
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateRecord(ctx, session.ID, map[string]interface{}{
		"status":       models.RecordCompleted,
		"results":      string(results),
		"completed_at": &now,
	}); err != nil {
		slog.Error("Failed to complete discussion record", "gd_id", session.ID, "error", err)
	}
}
