package services

import (
	"context"
	"log/slog"

	"github.com/prepwise/backend/models"
)

// VideoAnalyzer summarizes a recorded video answer into eye-contact,
// attention, and expression measures.
type VideoAnalyzer interface {
	Analyze(ctx context.Context, video []byte) (models.VideoSummary, error)
}

// StubVideoAnalyzer returns fixed summaries in place of a real frame
// analysis pipeline. Sessions in video mode run end to end against it.
type StubVideoAnalyzer struct{}

func NewStubVideoAnalyzer() *StubVideoAnalyzer {
	return &StubVideoAnalyzer{}
}

func (s *StubVideoAnalyzer) Analyze(ctx context.Context, video []byte) (models.VideoSummary, error) {
	slog.Debug("Video analysis stubbed", "video_bytes", len(video))
	return models.VideoSummary{
		EyeContact: 0.7,
		Attention:  0.75,
		Expressions: map[string]float64{
			"neutral": 0.7,
			"smile":   0.3,
		},
		FrameCount: 0,
	}, nil
}
