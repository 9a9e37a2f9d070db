package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prepwise/backend/models"

	"github.com/go-chi/chi/v5"
)

// uploads are capped well above any realistic resume or answer recording
const maxUploadBytes = 32 << 20

type InterviewEndpoints struct {
	interviews *InterviewService
	parser     *ResumeParser
}

func NewInterviewEndpoints(interviews *InterviewService, parser *ResumeParser) *InterviewEndpoints {
	return &InterviewEndpoints{
		interviews: interviews,
		parser:     parser,
	}
}

func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interview", func(r chi.Router) {
		r.Post("/start", e.StartHandler)
		r.Post("/answer", e.AnswerHandler)
		r.Post("/end", e.EndHandler)
		r.Get("/results/{id}", e.ResultsHandler)
		r.Get("/history", e.HistoryHandler)
		r.Delete("/history/{id}", e.DeleteHistoryHandler)
	})
	r.Post("/resume/parse", e.ParseResumeHandler)
}

type startInterviewRequest struct {
	Category models.InterviewCategory `json:"interview_type"`
	Mode     models.InterviewMode     `json:"mode"`
}

// StartHandler opens a session. It accepts either a JSON body or a
// multipart form carrying an optional resume PDF alongside the fields.
func (e *InterviewEndpoints) StartHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req startInterviewRequest
	var resume *models.ResumeData

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req.Category = models.InterviewCategory(r.FormValue("interview_type"))
		req.Mode = models.InterviewMode(r.FormValue("mode"))
		resume = e.parseResumeUpload(r)
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if req.Mode == "" {
		req.Mode = models.ModeText
	}

	resp, err := e.interviews.Start(r.Context(), userID, req.Category, req.Mode, resume)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type answerRequest struct {
	InterviewID string `json:"interview_id"`
	Answer      string `json:"answer"`
}

// AnswerHandler records one answer. Voice and video sessions submit a
// multipart form with audio and video parts; text sessions may use JSON.
func (e *InterviewEndpoints) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req answerRequest
	var audio, video []byte

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req.InterviewID = r.FormValue("interview_id")
		req.Answer = r.FormValue("answer")
		audio = readFormFile(r, "audio")
		video = readFormFile(r, "video")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if req.InterviewID == "" {
		http.Error(w, "interview_id is required", http.StatusBadRequest)
		return
	}

	resp, err := e.interviews.SubmitAnswer(r.Context(), userID, req.InterviewID, req.Answer, audio, video)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type endInterviewRequest struct {
	InterviewID string `json:"interview_id"`
}

func (e *InterviewEndpoints) EndHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req endInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InterviewID == "" {
		http.Error(w, "interview_id is required", http.StatusBadRequest)
		return
	}

	result, err := e.interviews.End(r.Context(), userID, req.InterviewID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *InterviewEndpoints) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	interviewID := chi.URLParam(r, "id")

	result, err := e.interviews.Results(r.Context(), userID, interviewID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *InterviewEndpoints) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	records, err := e.interviews.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"count":   len(records),
	})
}

func (e *InterviewEndpoints) DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	recordID := chi.URLParam(r, "id")

	if err := e.interviews.DeleteHistory(r.Context(), userID, recordID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ParseResumeHandler extracts a structured profile from an uploaded PDF
// without opening a session.
func (e *InterviewEndpoints) ParseResumeHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	data := readFormFile(r, "resume")
	if len(data) == 0 {
		http.Error(w, "resume file is required", http.StatusBadRequest)
		return
	}

	resume, err := e.parser.Parse(data)
	if err != nil {
		slog.Warn("Resume parse failed", "error", err)
		http.Error(w, "Could not parse resume", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, resume)
}

func (e *InterviewEndpoints) parseResumeUpload(r *http.Request) *models.ResumeData {
	data := readFormFile(r, "resume")
	if len(data) == 0 {
		return nil
	}
	resume, err := e.parser.Parse(data)
	if err != nil {
		slog.Warn("Ignoring unparseable resume upload", "error", err)
		return nil
	}
	return resume
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func readFormFile(r *http.Request, field string) []byte {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil
	}
	return data
}
