package services

import (
	"encoding/json"
	"net/http"

	"github.com/prepwise/backend/models"

	"github.com/go-chi/chi/v5"
)

type DiscussionEndpoints struct {
	discussions *DiscussionService
}

func NewDiscussionEndpoints(discussions *DiscussionService) *DiscussionEndpoints {
	return &DiscussionEndpoints{discussions: discussions}
}

func (e *DiscussionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/gd", func(r chi.Router) {
		r.Post("/start", e.StartHandler)
		r.Post("/speak", e.SpeakHandler)
		r.Post("/end", e.EndHandler)
		r.Get("/status/{id}", e.StatusHandler)
		r.Get("/results/{id}", e.ResultsHandler)
		r.Get("/history", e.HistoryHandler)
		r.Delete("/history/{id}", e.DeleteHistoryHandler)
	})
}

type startDiscussionRequest struct {
	Mode  models.InterviewMode `json:"mode"`
	Topic string               `json:"topic"`
}

func (e *DiscussionEndpoints) StartHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req startDiscussionRequest
	if r.Body != nil {
		// An empty body starts a text-mode discussion on a generated topic.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	resp, err := e.discussions.Start(r.Context(), userID, req.Mode, req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type speakRequest struct {
	DiscussionID string `json:"gd_id"`
	Message      string `json:"message"`
	Interrupting bool   `json:"interrupting"`
}

func (e *DiscussionEndpoints) SpeakHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DiscussionID == "" {
		http.Error(w, "gd_id is required", http.StatusBadRequest)
		return
	}

	resp, err := e.discussions.Speak(r.Context(), userID, req.DiscussionID, req.Message, req.Interrupting)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type endDiscussionRequest struct {
	DiscussionID string `json:"gd_id"`
}

func (e *DiscussionEndpoints) EndHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req endDiscussionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DiscussionID == "" {
		http.Error(w, "gd_id is required", http.StatusBadRequest)
		return
	}

	result, err := e.discussions.End(r.Context(), userID, req.DiscussionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *DiscussionEndpoints) StatusHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	resp, err := e.discussions.Status(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *DiscussionEndpoints) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	result, err := e.discussions.Results(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *DiscussionEndpoints) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	records, err := e.discussions.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": records,
		"count":   len(records),
	})
}

func (e *DiscussionEndpoints) DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := e.discussions.DeleteHistory(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
