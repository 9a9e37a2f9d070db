package services

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/prepwise/backend/models"
)

func newTestDiscussionService() *DiscussionService {
	gateway := NewGateway("", rand.NewSource(1))
	return NewDiscussionService(gateway, nil, rand.NewSource(1))
}

func TestDiscussionStart(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, err := svc.Start(ctx, "user_123", models.ModeText, "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if start.DiscussionID == "" {
		t.Fatal("missing discussion id")
	}
	if len(start.Participants) != 4 {
		t.Fatalf("participants = %d, expected 4", len(start.Participants))
	}

	// An empty topic gets one from the fixed pool when offline.
	found := false
	for _, candidate := range discussionTopics {
		if candidate == start.Topic {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("topic %q not from pool", start.Topic)
	}

	// A provided topic is kept verbatim.
	custom, err := svc.Start(ctx, "user_123", models.ModeText, "Is open source sustainable?")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if custom.Topic != "Is open source sustainable?" {
		t.Errorf("topic = %q", custom.Topic)
	}
}

func TestDiscussionAlwaysHasResponder(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	// Responder selection is probabilistic, but the student must never
	// speak into silence: the leader steps in when nobody else does.
	for i := 0; i < 20; i++ {
		resp, err := svc.Speak(ctx, "user_123", start.DiscussionID, "Here is my point.", false)
		if err != nil {
			t.Fatalf("Speak(%d) error = %v", i, err)
		}
		if len(resp.Responses) == 0 {
			t.Errorf("no responses on turn %d", i)
		}
		for _, turn := range resp.Responses {
			if turn.Speaker == models.StudentSpeaker {
				t.Errorf("student echoed back on turn %d", i)
			}
		}
	}
}

func TestDiscussionTracking(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	const speaks = 3
	for i := 0; i < speaks; i++ {
		if _, err := svc.Speak(ctx, "user_123", start.DiscussionID, "My argument here.", false); err != nil {
			t.Fatalf("Speak error = %v", err)
		}
	}

	status, err := svc.Status(ctx, "user_123", start.DiscussionID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Tracking.StudentSpeaksCount != speaks {
		t.Errorf("speaks count = %d, expected %d", status.Tracking.StudentSpeaksCount, speaks)
	}
	if !status.Tracking.StudentInitiated {
		t.Error("first speaker should be marked as initiator")
	}
	// Every recorded turn counts: the student's plus each persona reply.
	if status.TurnCount != len(status.Tracking.ConversationHistory) {
		t.Errorf("turn count = %d, history = %d", status.TurnCount, len(status.Tracking.ConversationHistory))
	}
	if status.TurnCount <= speaks {
		t.Errorf("turn count = %d, expected persona replies to be counted", status.TurnCount)
	}
	if len(status.RecentTurns) > statusHistoryTurns {
		t.Errorf("recent turns = %d, exceeds cap", len(status.RecentTurns))
	}
}

func TestDiscussionSummaryAndConclusionCues(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	svc.Speak(ctx, "user_123", start.DiscussionID, "To summarize, we covered three themes.", false)
	svc.Speak(ctx, "user_123", start.DiscussionID, "In conclusion, remote work is here to stay.", false)

	status, _ := svc.Status(ctx, "user_123", start.DiscussionID)
	if !status.Tracking.StudentSummarized {
		t.Error("summary cue not detected")
	}
	if !status.Tracking.StudentConcluded {
		t.Error("conclusion cue not detected")
	}
}

func TestDiscussionEnd(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")
	svc.Speak(ctx, "user_123", start.DiscussionID, "Opening point.", false)

	result, err := svc.End(ctx, "user_123", start.DiscussionID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if result.DiscussionID != start.DiscussionID || result.Topic != "Remote work" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.OverallScore <= 0 {
		t.Errorf("overall score = %v", result.OverallScore)
	}
	if result.BehaviorSummary.StudentSpeaksCount != 1 {
		t.Errorf("behavior summary speaks = %d", result.BehaviorSummary.StudentSpeaksCount)
	}

	// Results survive the session teardown.
	if _, err := svc.Results(ctx, "user_123", start.DiscussionID); err != nil {
		t.Errorf("Results after end = %v", err)
	}

	// The live session is gone.
	if _, err := svc.End(ctx, "user_123", start.DiscussionID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second End = %v, expected ErrNotFound", err)
	}
	if _, err := svc.Speak(ctx, "user_123", start.DiscussionID, "More.", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Speak after end = %v, expected ErrNotFound", err)
	}
}

func TestDiscussionOwnership(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	if _, err := svc.Speak(ctx, "intruder", start.DiscussionID, "Hi.", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("foreign speak = %v, expected ErrUnauthorized", err)
	}
	if _, err := svc.Status(ctx, "intruder", start.DiscussionID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("foreign status = %v, expected ErrUnauthorized", err)
	}
	if _, err := svc.End(ctx, "intruder", start.DiscussionID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("foreign end = %v, expected ErrUnauthorized", err)
	}
}

func TestDiscussionTurnCountPerSpeak(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	resp, err := svc.Speak(ctx, "user_123", start.DiscussionID, "Opening point.", false)
	if err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if resp.TurnCount != 1+len(resp.Responses) {
		t.Errorf("turn count = %d, expected %d", resp.TurnCount, 1+len(resp.Responses))
	}
}

func TestDiscussionInterruptionFlagRecorded(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")

	resp, err := svc.Speak(ctx, "user_123", start.DiscussionID, "Let me cut in here.", true)
	if err != nil {
		t.Fatalf("Speak error = %v", err)
	}
	if resp.Tracking.StudentInterruptions != 1 {
		t.Errorf("interruptions = %d, expected 1", resp.Tracking.StudentInterruptions)
	}

	// The student's own turn carries the flag as supplied.
	studentTurn := resp.Tracking.ConversationHistory[0]
	if studentTurn.Speaker != models.StudentSpeaker || !studentTurn.Interrupted {
		t.Errorf("student turn not tagged as interrupting: %+v", studentTurn)
	}
}

func TestDiscussionReplyContextWindow(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	var lastPrompt string
	svc.gateway.complete = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Recent conversation:") {
			lastPrompt = prompt
		}
		return "I agree with that point.", nil
	}

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")
	for i := 0; i < 8; i++ {
		if _, err := svc.Speak(ctx, "user_123", start.DiscussionID, "Another argument.", false); err != nil {
			t.Fatalf("Speak(%d) error = %v", i, err)
		}
	}

	begin := strings.Index(lastPrompt, "Recent conversation:\n")
	end := strings.Index(lastPrompt, "Student just said:")
	if begin < 0 || end < begin {
		t.Fatalf("prompt missing conversation section:\n%s", lastPrompt)
	}
	section := lastPrompt[begin+len("Recent conversation:\n") : end]
	turns := strings.Count(section, "\n") - 1
	if turns > replyContextTurns {
		t.Errorf("prompt embedded %d history turns, cap is %d", turns, replyContextTurns)
	}
}

func TestDiscussionDevIdentityBypass(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, err := svc.Start(ctx, "alice", models.ModeText, "Remote work")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The dev identity passes every ownership check.
	if _, err := svc.Speak(ctx, DevUserID, start.DiscussionID, "Hello everyone.", false); err != nil {
		t.Errorf("dev identity speak = %v", err)
	}
	if _, err := svc.Status(ctx, DevUserID, start.DiscussionID); err != nil {
		t.Errorf("dev identity status = %v", err)
	}
	result, err := svc.End(ctx, DevUserID, start.DiscussionID)
	if err != nil {
		t.Fatalf("dev identity end = %v", err)
	}
	if result.UserID != "alice" {
		t.Errorf("result owner = %q, expected the session owner", result.UserID)
	}
}

func TestDiscussionEmptyMessageRejected(t *testing.T) {
	svc := newTestDiscussionService()
	ctx := context.Background()

	start, _ := svc.Start(ctx, "user_123", models.ModeText, "Remote work")
	if _, err := svc.Speak(ctx, "user_123", start.DiscussionID, "   ", false); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank message = %v, expected ErrInvalidInput", err)
	}
}

func TestHeuristicEvaluation(t *testing.T) {
	tests := []struct {
		name     string
		tracking models.BehaviorTracking
		overall  float64
		checks   map[string]float64
	}{
		{
			name:     "Silent student",
			tracking: models.BehaviorTracking{},
			overall:  5.0,
			checks: map[string]float64{
				"participation": 0,
				"communication": 5,
				"leadership":    6,
			},
		},
		{
			name: "Active leader",
			tracking: models.BehaviorTracking{
				StudentSpeaksCount: 6,
				StudentInitiated:   true,
				StudentSummarized:  true,
			},
			overall: 8.2,
			checks: map[string]float64{
				"participation": 10,
				"communication": 7,
				"leadership":    10,
			},
		},
		{
			name: "Participation capped at ten",
			tracking: models.BehaviorTracking{
				StudentSpeaksCount: 50,
			},
			overall: 7.4,
			checks: map[string]float64{
				"participation": 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := heuristicEvaluation(tt.tracking)
			if result.OverallScore != tt.overall {
				t.Errorf("overall = %v, expected %v", result.OverallScore, tt.overall)
			}
			for key, expected := range tt.checks {
				if result.Scores[key] != expected {
					t.Errorf("%s = %v, expected %v", key, result.Scores[key], expected)
				}
			}
			// Deterministic: same tracking, same scores.
			again := heuristicEvaluation(tt.tracking)
			if again.OverallScore != result.OverallScore {
				t.Error("heuristic evaluation not deterministic")
			}
		})
	}
}
