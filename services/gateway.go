package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/prepwise/backend/models"

	"google.golang.org/genai"
)

const (
	GatewayModel   = "gemini-2.5-flash"
	RequestTimeout = 30 * time.Second

	maxPromptAnswers   = 3   // prior answers embedded in a question prompt
	maxAnswerPreview   = 200 // characters of each embedded answer
	maxPromptSkills    = 10  // resume skills embedded in a question prompt
	minTopicLength     = 10  // shorter generated topics are rejected
	interruptionChance = 0.4 // Aggressive persona interrupt probability
)

// Gateway is the single chokepoint for all external-model calls. It never
// returns an error to its callers: any network failure, non-2xx status,
// empty payload, or unparseable response degrades to a deterministic or
// canned fallback inside this type.
type Gateway struct {
	model    string
	timeout  time.Duration
	complete func(ctx context.Context, prompt string) (string, error)

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewGateway creates a gateway backed by the Gemini API. A missing API key
// or failed client construction is tolerated; the gateway then serves
// fallback values only. The random source drives canned-reply selection
// and action classification so tests can fix the seed.
func NewGateway(apiKey string, src rand.Source) *Gateway {
	g := &Gateway{
		model:   GatewayModel,
		timeout: RequestTimeout,
		rng:     rand.New(src),
	}

	if apiKey == "" {
		slog.Warn("Gateway API key not set, using fallback responses only")
		return g
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client, using fallback responses only", "error", err)
		return g
	}

	g.complete = func(ctx context.Context, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	}
	return g
}

// requestCompletion issues one model call with the gateway timeout. The
// second return value is false whenever no usable text came back.
func (g *Gateway) requestCompletion(ctx context.Context, prompt string) (string, bool) {
	if g.complete == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.complete(ctx, prompt)
	if err != nil {
		slog.Warn("Model request failed", "error", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		slog.Warn("Model returned empty response")
		return "", false
	}
	return text, true
}

func (g *Gateway) randFloat() float64 {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.rng.Float64()
}

func (g *Gateway) randIndex(n int) int {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.rng.Intn(n)
}

// ============================================================
// QUESTION GENERATION
// ============================================================

var fallbackQuestions = map[models.InterviewCategory][]string{
	models.CategoryHR: {
		"Tell me about yourself.",
		"What are your strengths?",
		"Why should we hire you?",
		"Where do you see yourself in 5 years?",
		"How do you handle stress?",
	},
	models.CategoryTechnical: {
		"Explain a project you worked on.",
		"How do you debug code?",
		"Explain OOP concepts.",
		"What is your approach to testing?",
		"How do you optimize database queries?",
	},
	models.CategoryGD: {
		"What is teamwork?",
		"What are the pros and cons of remote work?",
		"Is AI a threat to jobs?",
		"How important is communication in a team?",
		"What makes a good leader?",
	},
}

// fallbackQuestion is deterministic: the same category and question number
// always yield the same canned question.
func fallbackQuestion(category models.InterviewCategory, questionNumber int) string {
	questions, ok := fallbackQuestions[category]
	if !ok {
		questions = fallbackQuestions[models.CategoryHR]
	}
	return questions[(questionNumber-1)%len(questions)]
}

var categoryContexts = map[models.InterviewCategory]string{
	models.CategoryHR:        "HR interview focusing on behavior, attitude, and soft skills",
	models.CategoryTechnical: "Technical interview focusing on coding, logic, and problem-solving",
	models.CategoryGD:        "Group discussion focusing on communication and opinion sharing",
}

// GenerateQuestion produces the next interview question for a session.
func (g *Gateway) GenerateQuestion(ctx context.Context, category models.InterviewCategory, questionNumber int, previousAnswers []string, resume *models.ResumeData) string {
	prompt := buildQuestionPrompt(category, questionNumber, previousAnswers, resume)

	result, ok := g.requestCompletion(ctx, prompt)
	if !ok {
		question := fallbackQuestion(category, questionNumber)
		slog.Info("Using fallback question", "category", category, "question_number", questionNumber)
		return question
	}

	slog.Info("Generated question", "category", category, "question_number", questionNumber, "length", len(result))
	return result
}

func buildQuestionPrompt(category models.InterviewCategory, questionNumber int, previousAnswers []string, resume *models.ResumeData) string {
	focus, ok := categoryContexts[category]
	if !ok {
		focus = "General Interview"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert interviewer conducting a %s.

Generate interview question number %d.

IMPORTANT: Return ONLY the question text, nothing else. No explanations, no prefixes, just the question.

Guidelines:
- Make it clear, concise, and professional
- Relevant to %s interview type
- If this is question 1, start with an opening/introductory question
- If previous answers exist, ask a thoughtful follow-up question
- Keep it conversational and engaging`, focus, questionNumber, category)

	if resume != nil && len(resume.Skills) > 0 {
		skills := resume.Skills
		if len(skills) > maxPromptSkills {
			skills = skills[:maxPromptSkills]
		}
		fmt.Fprintf(&b, "\n\nCandidate has skills in: %s", strings.Join(skills, ", "))
	}

	if len(previousAnswers) > 0 {
		b.WriteString("\n\nPrevious answers from candidate:")
		start := 0
		if len(previousAnswers) > maxPromptAnswers {
			start = len(previousAnswers) - maxPromptAnswers
		}
		for i, answer := range previousAnswers[start:] {
			if len(answer) > maxAnswerPreview {
				answer = answer[:maxAnswerPreview] + "..."
			}
			fmt.Fprintf(&b, "\n%d. %s", i+1, answer)
		}
		b.WriteString("\n\nAsk a follow-up question based on their previous answers.")
	}

	b.WriteString("\n\nGenerate the question now:")
	return b.String()
}

// ============================================================
// ANSWER ANALYSIS
// ============================================================

// AnalyzeAnswer evaluates a single answer against its question.
func (g *Gateway) AnalyzeAnswer(ctx context.Context, question, answer string, category models.InterviewCategory) models.AnswerAnalysis {
	prompt := fmt.Sprintf(`You are an expert interviewer.

Interview Type: %s
Question: %s
Candidate Answer: %s

Evaluate the answer and provide:
SCORE: (0-100)
FEEDBACK: (2-3 lines)
STRENGTHS: (2-3 bullet points)
IMPROVEMENTS: (2-3 bullet points)

Return only the evaluation.`, category, question, answer)

	result, ok := g.requestCompletion(ctx, prompt)
	if !ok {
		return models.AnswerAnalysis{
			Score:        75,
			Feedback:     "Good answer, but needs improvement.",
			Strengths:    []string{"Relevant response", "Shows understanding"},
			Improvements: []string{"More clarity needed", "Could provide more examples"},
		}
	}

	score, ok := extractScore(result)
	if !ok {
		score = 75
	}
	return models.AnswerAnalysis{
		Score:        score,
		Feedback:     result,
		Strengths:    extractListItems(result, "STRENGTHS", "strengths"),
		Improvements: extractListItems(result, "IMPROVEMENTS", "improvements"),
	}
}

// ============================================================
// FINAL INTERVIEW FEEDBACK
// ============================================================

// GenerateFinalFeedback evaluates a completed interview over its full Q/A
// sequence plus any auxiliary analysis summaries. Scores are on a 0-100
// scale with content, communication, and confidence sub-scores.
func (g *Gateway) GenerateFinalFeedback(ctx context.Context, category models.InterviewCategory, qaPairs []models.QAPair, emotionAnalyses []map[string]float64, videoAnalyses []models.VideoSummary) models.EvaluationResult {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate final feedback for a %s interview.\n\n", category)

	for i, qa := range qaPairs {
		fmt.Fprintf(&b, "%d. Question: %s\n", i+1, qa.Question)
		fmt.Fprintf(&b, "Answer: %s\n\n", qa.Answer)
	}

	if len(emotionAnalyses) > 0 {
		if data, err := json.Marshal(emotionAnalyses); err == nil {
			fmt.Fprintf(&b, "Emotion Analysis:\n%s\n\n", data)
		}
	}
	if len(videoAnalyses) > 0 {
		if data, err := json.Marshal(videoAnalyses); err == nil {
			fmt.Fprintf(&b, "Video Analysis:\n%s\n\n", data)
		}
	}

	b.WriteString(`
Provide:
1. Overall Score (0-100)
2. Score Breakdown (content, communication, confidence)
3. Top Strengths
4. Areas of Improvement
5. Final Summary Paragraph
`)

	result, ok := g.requestCompletion(ctx, b.String())
	if !ok {
		return defaultFeedback()
	}
	return parseFeedback(result)
}

func parseFeedback(text string) models.EvaluationResult {
	overall, ok := extractScore(text)
	if !ok {
		overall = 75
	}

	scores := make(map[string]float64, 3)
	for _, keyword := range []string{"content", "communication", "confidence"} {
		score, ok := extractNamedScore(text, keyword)
		if !ok {
			score = 75
		}
		scores[keyword] = float64(score)
	}

	return models.EvaluationResult{
		OverallScore:     float64(overall),
		Scores:           scores,
		Strengths:        extractListItems(text, "strengths", "top strengths"),
		Weaknesses:       extractListItems(text, "improvements", "areas of improvement"),
		DetailedFeedback: text,
	}
}

func defaultFeedback() models.EvaluationResult {
	return models.EvaluationResult{
		OverallScore: 75,
		Scores: map[string]float64{
			"content":       75,
			"communication": 75,
			"confidence":    75,
		},
		Strengths:        []string{"Completed interview successfully", "Showed engagement"},
		Weaknesses:       []string{"Needs more practice", "Could improve clarity"},
		DetailedFeedback: "Keep practicing to improve performance. Focus on providing specific examples and clearer explanations.",
	}
}

// ============================================================
// GROUP DISCUSSION
// ============================================================

var discussionFallbacks = map[string][]string{
	"leader": {
		"That's a good point. Let me add that we should also consider...",
		"I think we're on the right track. To summarize what's been said...",
		"Building on that, I'd like to emphasize...",
	},
	"aggressive": {
		"I disagree with that perspective. Here's why...",
		"Wait, I need to challenge that point because...",
		"That's not entirely accurate. Let me correct...",
	},
	"logical": {
		"From a data perspective, studies show that...",
		"To support this point, here's an example...",
		"Looking at this logically, we should consider...",
	},
	"silent": {
		"I think we should also consider...",
		"One more point to add...",
		"I agree, and would like to add...",
	},
}

var discussionTopics = []string{
	"Should social media platforms be held accountable for spreading fake news?",
	"Is remote work the future of corporate culture?",
	"Should artificial intelligence be regulated by governments?",
	"Is online education as effective as traditional classroom learning?",
	"Should college degrees be mandatory for all high-paying jobs?",
	"Is universal basic income a solution to automation-related job loss?",
	"Should voting be made compulsory in democratic countries?",
	"Is cryptocurrency the future of financial transactions?",
	"Should companies prioritize diversity over merit in hiring?",
	"Is climate change the most pressing global issue today?",
}

// GenerateDiscussionTopic returns a discussion topic, preferring a model
// generated one and falling back to a random pick from the fixed pool.
func (g *Gateway) GenerateDiscussionTopic(ctx context.Context) string {
	prompt := `Generate a realistic placement-style Group Discussion topic.
The topic should be:
- Relevant to current issues (technology, social, business, abstract)
- Suitable for campus placement interviews
- Open-ended with multiple perspectives

Return ONLY the topic text, nothing else.`

	result, ok := g.requestCompletion(ctx, prompt)
	if ok && len(strings.TrimSpace(result)) > minTopicLength {
		return strings.TrimSpace(result)
	}
	return discussionTopics[g.randIndex(len(discussionTopics))]
}

// GenerateDiscussionResponse produces one participant's reply to the
// student, conditioned on the participant's personality, plus its action
// classification.
func (g *Gateway) GenerateDiscussionResponse(ctx context.Context, participant models.Participant, topic string, recentHistory []models.Turn, studentMessage string) (string, string) {
	var recent strings.Builder
	for _, turn := range recentHistory {
		name := turn.SpeakerName
		if name == "" {
			name = turn.Speaker
		}
		fmt.Fprintf(&recent, "%s: %s\n", name, turn.Message)
	}

	prompt := fmt.Sprintf(`You are %s, a participant in a Group Discussion.

Topic: %s

Your Personality: %s
Your Traits: %s
Your Speech Style: %s

Recent conversation:
%s
Student just said: "%s"

Based on your personality, respond naturally. You can:
- Agree or disagree with the student
- Add your perspective
- Interrupt if you're the aggressive type
- Provide facts/examples if you're logical
- Stay concise if you're silent/observer
- Summarize if you're the leader

Return your response (1-3 sentences, natural conversational style).`,
		participant.Name, topic, participant.Personality,
		strings.Join(participant.Traits, ", "), participant.SpeechStyle,
		recent.String(), studentMessage)

	message, ok := g.requestCompletion(ctx, prompt)
	if !ok {
		message = g.fallbackDiscussionReply(participant)
	}

	return message, g.classifyAction(participant, message)
}

func (g *Gateway) fallbackDiscussionReply(participant models.Participant) string {
	replies, ok := discussionFallbacks[participant.ID]
	if !ok {
		return "That's an interesting point."
	}
	return replies[g.randIndex(len(replies))]
}

// classifyAction derives the action tag from the reply text. The
// Aggressive persona interrupts with a fixed probability regardless of
// what it said; everyone else is classified by agreement cue words.
func (g *Gateway) classifyAction(participant models.Participant, message string) string {
	if participant.ID == "aggressive" && g.randFloat() < interruptionChance {
		return models.ActionInterrupts
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "agree") && !strings.Contains(lower, "disagree"), strings.Contains(lower, "yes"):
		return models.ActionAgrees
	case strings.Contains(lower, "disagree"), strings.Contains(lower, "but"):
		return models.ActionDisagrees
	}
	return models.ActionSpeaks
}

// EvaluateDiscussion requests a structured JSON evaluation of the
// student's discussion performance. The second return value is false when
// the model was unavailable or its output had no parseable JSON object;
// the orchestrator then applies its behavior heuristic instead.
func (g *Gateway) EvaluateDiscussion(ctx context.Context, topic string, history []models.Turn, tracking models.BehaviorTracking) (models.EvaluationResult, bool) {
	behaviorSummary := fmt.Sprintf(`
Student Participation Metrics:
- Total times student spoke: %d
- Initiated discussion: %s
- Number of interruptions: %d
- Times interrupted: %d
- Summarized discussion: %s
- Concluded discussion: %s
`,
		tracking.StudentSpeaksCount,
		yesNo(tracking.StudentInitiated),
		tracking.StudentInterruptions,
		tracking.StudentInterruptedCount,
		yesNo(tracking.StudentSummarized),
		yesNo(tracking.StudentConcluded))

	var transcript strings.Builder
	for _, turn := range history {
		name := turn.SpeakerName
		if name == "" {
			name = turn.Speaker
		}
		fmt.Fprintf(&transcript, "%s: %s\n", name, turn.Message)
	}

	prompt := fmt.Sprintf(`You are evaluating a student's performance in a Group Discussion.

Topic: %s

%s

Full Conversation:
%s

Evaluate the student's performance based on:
1. Communication clarity & confidence (0-10)
2. Content relevance & structure (0-10)
3. Participation level (0-10)
4. Team behavior (respect, interruptions, listening) (0-10)
5. Leadership signals (initiative, summary, direction) (0-10)

Consider behavior during discussion, not just answer quality.

Return a JSON object with this exact structure:
{
    "overall_score": <number 0-10>,
    "scores": {
        "communication": <number 0-10>,
        "content": <number 0-10>,
        "participation": <number 0-10>,
        "team_behavior": <number 0-10>,
        "leadership": <number 0-10>
    },
    "strengths": [<array of 3-5 strength strings>],
    "weaknesses": [<array of 3-5 weakness strings>],
    "role_suitability": "<one role: Analyst, Leader, Consultant, Team Player, Observer>",
    "improvement_suggestions": [<array of 3-5 actionable suggestions>],
    "detailed_feedback": "<2-3 paragraph detailed feedback>"
}

Return ONLY valid JSON, no other text.`, topic, behaviorSummary, transcript.String())

	response, ok := g.requestCompletion(ctx, prompt)
	if !ok {
		return models.EvaluationResult{}, false
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		slog.Warn("Discussion evaluation had no parseable JSON object")
		return models.EvaluationResult{}, false
	}

	var result models.EvaluationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("Failed to decode discussion evaluation", "error", err)
		return models.EvaluationResult{}, false
	}
	return result, true
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
