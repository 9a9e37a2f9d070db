package services

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) (*chi.Mux, *InterviewService, *DiscussionService) {
	t.Helper()

	gateway := NewGateway("", rand.NewSource(1))
	interviews := NewInterviewService(gateway, NewStubVoiceAnalyzer(), NewStubVideoAnalyzer(), nil)
	discussions := NewDiscussionService(gateway, nil, rand.NewSource(1))
	auth := NewAuthService(nil, "test-secret")

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		NewInterviewEndpoints(interviews, NewResumeParser()).RegisterRoutes(r)
		NewDiscussionEndpoints(discussions).RegisterRoutes(r)
	})
	return r, interviews, discussions
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestInterviewEndpointsFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/interview/start", map[string]string{
		"interview_type": "technical",
		"mode":           "text",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body = %s", rec.Code, rec.Body)
	}

	var start StartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if start.InterviewID == "" || start.Question == "" {
		t.Fatalf("incomplete start payload: %+v", start)
	}

	// A live session reports results as not ready.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/interview/results/"+start.InterviewID, nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("results while live = %d, expected 409", rec.Code)
	}

	rec = postJSON(t, router, "/interview/answer", map[string]string{
		"interview_id": start.InterviewID,
		"answer":       "I built a service in Go.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("answer status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = postJSON(t, router, "/interview/end", map[string]string{
		"interview_id": start.InterviewID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/interview/results/"+start.InterviewID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("results after end = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestInterviewEndpointErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/interview/start", map[string]string{
		"interview_type": "astrology",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid category = %d, expected 400", rec.Code)
	}

	rec = postJSON(t, router, "/interview/answer", map[string]string{
		"interview_id": "does-not-exist",
		"answer":       "Hello.",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session = %d, expected 404", rec.Code)
	}

	rec = postJSON(t, router, "/interview/end", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing interview_id = %d, expected 400", rec.Code)
	}
}

func TestDiscussionEndpointsFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/gd/start", map[string]string{"topic": "Remote work"})
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body = %s", rec.Code, rec.Body)
	}

	var start StartDiscussionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &start); err != nil {
		t.Fatalf("decode start: %v", err)
	}

	rec = postJSON(t, router, "/gd/speak", map[string]interface{}{
		"gd_id":   start.DiscussionID,
		"message": "I believe remote work boosts productivity.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("speak status = %d, body = %s", rec.Code, rec.Body)
	}

	var speak SpeakResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &speak); err != nil {
		t.Fatalf("decode speak: %v", err)
	}
	if len(speak.Responses) == 0 {
		t.Error("no persona responses")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/gd/status/"+start.DiscussionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = postJSON(t, router, "/gd/end", map[string]string{"gd_id": start.DiscussionID})
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, body = %s", rec.Code, rec.Body)
	}

	// Ended discussions are gone from live lookups.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/gd/status/"+start.DiscussionID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after end = %d, expected 404", rec.Code)
	}
}
