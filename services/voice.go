package services

import (
	"context"
	"log/slog"

	"github.com/prepwise/backend/models"
)

// VoiceAnalyzer turns a recorded answer into a transcription plus emotion
// and speech-feature summaries.
type VoiceAnalyzer interface {
	Analyze(ctx context.Context, audio []byte) (models.VoiceSummary, error)
}

// StubVoiceAnalyzer stands in for a real speech pipeline. It returns
// fixed, well-formed summaries so the interview flow behaves identically
// whether or not audio processing is deployed.
type StubVoiceAnalyzer struct{}

func NewStubVoiceAnalyzer() *StubVoiceAnalyzer {
	return &StubVoiceAnalyzer{}
}

func (s *StubVoiceAnalyzer) Analyze(ctx context.Context, audio []byte) (models.VoiceSummary, error) {
	slog.Debug("Voice analysis stubbed", "audio_bytes", len(audio))
	return models.VoiceSummary{
		Transcription: "Voice answer submitted",
		Emotions: map[string]float64{
			"neutral":    0.6,
			"confidence": 0.4,
		},
		SpeechFeatures: map[string]float64{
			"pace":   0.5,
			"energy": 0.5,
		},
	}, nil
}
