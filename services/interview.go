package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"

	"github.com/google/uuid"
)

// InterviewService runs mock interview sessions: a fixed number of
// generated questions answered one at a time, ending in an overall
// evaluation. Live sessions are held in memory; a durable record mirrors
// each session for history queries.
type InterviewService struct {
	sessions *SessionStore[models.InterviewSession]
	results  *SessionStore[models.InterviewResult]
	gateway  *Gateway
	voice    VoiceAnalyzer
	video    VideoAnalyzer
	repo     *repository.GORMRepository
}

func NewInterviewService(gateway *Gateway, voice VoiceAnalyzer, video VideoAnalyzer, repo *repository.GORMRepository) *InterviewService {
	return &InterviewService{
		sessions: NewSessionStore[models.InterviewSession](),
		results:  NewSessionStore[models.InterviewResult](),
		gateway:  gateway,
		voice:    voice,
		video:    video,
		repo:     repo,
	}
}

// StartResponse is the payload returned when a session opens.
type StartResponse struct {
	InterviewID    string                    `json:"interview_id"`
	Category       models.InterviewCategory  `json:"category"`
	Mode           models.InterviewMode      `json:"mode"`
	Question       string                    `json:"question"`
	QuestionNumber int                       `json:"question_number"`
	TotalQuestions int                       `json:"total_questions"`
	ResumeUsed     bool                      `json:"resume_used"`
}

// AnswerResponse is the payload returned after each submitted answer.
type AnswerResponse struct {
	InterviewID    string               `json:"interview_id"`
	Answer         string               `json:"answer"`
	Question       string               `json:"question,omitempty"`
	QuestionNumber int                  `json:"question_number,omitempty"`
	TotalQuestions int                  `json:"total_questions"`
	Finished       bool                 `json:"finished"`
	VoiceSummary   *models.VoiceSummary `json:"voice_summary,omitempty"`
	VideoSummary   *models.VideoSummary `json:"video_summary,omitempty"`
}

// Start opens a new session and generates its first question.
func (s *InterviewService) Start(ctx context.Context, userID string, category models.InterviewCategory, mode models.InterviewMode, resume *models.ResumeData) (*StartResponse, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}

	question := s.gateway.GenerateQuestion(ctx, category, 1, nil, resume)

	session := &models.InterviewSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Category:  category,
		Mode:      mode,
		Questions: []string{question},
		Resume:    resume,
		StartedAt: time.Now().UTC(),
	}
	s.sessions.Put(session.ID, session)
	s.persistRecord(ctx, session)

	slog.Info("Interview started",
		"interview_id", session.ID,
		"user_id", userID,
		"category", category,
		"mode", mode)

	return &StartResponse{
		InterviewID:    session.ID,
		Category:       category,
		Mode:           mode,
		Question:       question,
		QuestionNumber: 1,
		TotalQuestions: models.InterviewTurnLimit,
		ResumeUsed:     resume != nil,
	}, nil
}

// SubmitAnswer records one answer and either advances to the next
// question or finishes the session at the turn limit. Concurrent
// submissions to the same session are serialized by the store; each runs
// against the state the previous one left behind.
func (s *InterviewService) SubmitAnswer(ctx context.Context, userID, sessionID, answer string, audio, video []byte) (*AnswerResponse, error) {
	resp := &AnswerResponse{
		InterviewID:    sessionID,
		TotalQuestions: models.InterviewTurnLimit,
	}

	var snapshot models.InterviewSession
	err := s.sessions.Mutate(sessionID, func(session *models.InterviewSession) error {
		if !canAccess(userID, session.UserID) {
			return ErrUnauthorized
		}
		if session.Finished {
			return fmt.Errorf("%w: interview already finished", ErrInvalidInput)
		}

		if session.Mode == models.ModeVoice || session.Mode == models.ModeVideo {
			if len(audio) > 0 {
				summary, err := s.voice.Analyze(ctx, audio)
				if err != nil {
					slog.Warn("Voice analysis failed", "interview_id", sessionID, "error", err)
				} else {
					session.EmotionAnalyses = append(session.EmotionAnalyses, summary.Emotions)
					// The transcription replaces any typed text.
					if summary.Transcription != "" {
						answer = summary.Transcription
					}
					resp.VoiceSummary = &summary
				}
			}
			if session.Mode == models.ModeVideo && len(video) > 0 {
				summary, err := s.video.Analyze(ctx, video)
				if err != nil {
					slog.Warn("Video analysis failed", "interview_id", sessionID, "error", err)
				} else {
					session.VideoAnalyses = append(session.VideoAnalyses, summary)
					resp.VideoSummary = &summary
				}
			}
		}

		if answer == "" {
			return fmt.Errorf("%w: answer is required", ErrInvalidInput)
		}

		question := session.Questions[len(session.Questions)-1]
		resp.Answer = answer
		session.Answers = append(session.Answers, answer)
		session.QAPairs = append(session.QAPairs, models.QAPair{
			Question: question,
			Answer:   answer,
		})
		// The 1-based index of the question just answered.
		resp.QuestionNumber = len(session.Answers)

		if len(session.Answers) >= models.InterviewTurnLimit {
			session.Finished = true
			resp.Finished = true
		} else {
			next := s.gateway.GenerateQuestion(ctx, session.Category, len(session.Questions)+1, session.Answers, session.Resume)
			session.Questions = append(session.Questions, next)
			resp.Question = next
		}
		snapshot = *session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.updateRecord(ctx, &snapshot)
	return resp, nil
}

// End finishes the session, generates the final evaluation, and removes
// the live session. Results stay retrievable until the process restarts;
// the durable record keeps them permanently.
func (s *InterviewService) End(ctx context.Context, userID, sessionID string) (*models.InterviewResult, error) {
	var result *models.InterviewResult
	var snapshot models.InterviewSession

	err := s.sessions.Mutate(sessionID, func(session *models.InterviewSession) error {
		if !canAccess(userID, session.UserID) {
			return ErrUnauthorized
		}

		feedback := s.gateway.GenerateFinalFeedback(ctx, session.Category, session.QAPairs, session.EmotionAnalyses, session.VideoAnalyses)

		result = &models.InterviewResult{
			InterviewID:      session.ID,
			UserID:           session.UserID,
			Category:         session.Category,
			Mode:             session.Mode,
			OverallScore:     feedback.OverallScore,
			Scores:           feedback.Scores,
			Strengths:        feedback.Strengths,
			Weaknesses:       feedback.Weaknesses,
			DetailedFeedback: feedback.DetailedFeedback,
			CreatedAt:        session.StartedAt.Format(time.RFC3339),
		}
		session.Finished = true
		snapshot = *session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.results.Put(sessionID, result)
	s.sessions.Delete(sessionID)
	s.completeRecord(ctx, &snapshot, result)

	slog.Info("Interview ended",
		"interview_id", sessionID,
		"user_id", userID,
		"answers", len(snapshot.Answers),
		"overall_score", result.OverallScore)
	return result, nil
}

// Results returns the evaluation of an ended session. Lookup order: the
// in-memory result cache, the live store (not ready), then the durable
// record, which survives restarts.
func (s *InterviewService) Results(ctx context.Context, userID, sessionID string) (*models.InterviewResult, error) {
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
			return nil, fmt.Errorf("failed to load interview record: %w", err)
		}
		if record != nil && record.Kind == models.RecordKindInterview {
			if !canAccess(userID, record.UserID) {
				return nil, ErrUnauthorized
			}
			if record.Results == "" {
				return nil, ErrNotReady
			}
			var result models.InterviewResult
			if err := json.Unmarshal([]byte(record.Results), &result); err != nil {
				return nil, fmt.Errorf("failed to decode interview results: %w", err)
			}
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// History lists the caller's durable interview records, newest first.
func (s *InterviewService) History(ctx context.Context, userID string) ([]models.AssessmentRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	records, err := s.repo.QueryByOwner(ctx, models.RecordKindInterview, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interview history: %w", err)
	}
	return records, nil
}

// DeleteHistory removes one of the caller's interview records.
func (s *InterviewService) DeleteHistory(ctx context.Context, userID, recordID string) error {
	if s.repo == nil {
		return ErrNotFound
	}
	record, err := s.repo.GetRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("failed to load interview record: %w", err)
	}
	if record == nil || record.Kind != models.RecordKindInterview {
		return ErrNotFound
	}
	if !canAccess(userID, record.UserID) {
		return ErrUnauthorized
	}
	return s.repo.DeleteRecord(ctx, recordID)
}

func (s *InterviewService) persistRecord(ctx context.Context, session *models.InterviewSession) {
	if s.repo == nil {
		return
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		slog.Error("Failed to marshal session snapshot", "interview_id", session.ID, "error", err)
		return
	}
	record := &models.AssessmentRecord{
		ID:       session.ID,
		UserID:   session.UserID,
		Kind:     models.RecordKindInterview,
		Category: string(session.Category),
		Mode:     string(session.Mode),
		Status:   models.RecordInProgress,
		Snapshot: string(snapshot),
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		slog.Error("Failed to persist interview record", "interview_id", session.ID, "error", err)
	}
}

func (s *InterviewService) updateRecord(ctx context.Context, session *models.InterviewSession) {
	if s.repo == nil {
		return
	}
	snapshot, err := json.Marshal(session)
	if err != nil {
		slog.Error("Failed to marshal session snapshot", "interview_id", session.ID, "error", err)
		return
	}
	if err := s.repo.UpdateRecord(ctx, session.ID, map[string]interface{}{
		"snapshot": string(snapshot),
	}); err != nil {
		slog.Error("Failed to update interview record", "interview_id", session.ID, "error", err)
	}
}

func (s *InterviewService) completeRecord(ctx context.Context, session *models.InterviewSession, result *models.InterviewResult) {
	if s.repo == nil {
		return
	}
	results, err := json.Marshal(result)
	if err != nil {
		slog.Error("Failed to marshal interview results", "interview_id", session.ID, "error", err)
		return
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateRecord(ctx, session.ID, map[string]interface{}{
		"status":       models.RecordCompleted,
		"results":      string(results),
		"completed_at": &now,
	}); err != nil {
		slog.Error("Failed to complete interview record", "interview_id", session.ID, "error", err)
	}
}
