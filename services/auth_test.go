package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prepwise/backend/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")

	token, err := svc.generateAccessToken(&models.User{
		ID:    "abc-123",
		Email: "test@example.com",
		Role:  "user",
	})
	if err != nil {
		t.Fatalf("generateAccessToken error = %v", err)
	}

	userID, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken error = %v", err)
	}
	if userID != "abc-123" {
		t.Errorf("user id = %q, expected abc-123", userID)
	}
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, "secret-one")
	verifier := NewAuthService(nil, "secret-two")

	token, err := issuer.generateAccessToken(&models.User{ID: "abc-123"})
	if err != nil {
		t.Fatalf("generateAccessToken error = %v", err)
	}

	if _, err := verifier.VerifyAccessToken(token); err == nil {
		t.Error("expected verification to fail with mismatched secret")
	}
}

func TestMiddlewareResolvesIdentity(t *testing.T) {
	svc := NewAuthService(nil, "test-secret")

	validToken, err := svc.generateAccessToken(&models.User{ID: "real-user"})
	if err != nil {
		t.Fatalf("generateAccessToken error = %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		expected   string
	}{
		{
			name:     "No header resolves to dev identity",
			expected: DevUserID,
		},
		{
			name:       "Garbage token resolves to dev identity",
			authHeader: "Bearer not-a-token",
			expected:   DevUserID,
		},
		{
			name:       "Wrong scheme resolves to dev identity",
			authHeader: "Basic dXNlcjpwYXNz",
			expected:   DevUserID,
		},
		{
			name:       "Valid token resolves to its user",
			authHeader: "Bearer " + validToken,
			expected:   "real-user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resolved string
			handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				resolved = UserIDFromContext(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api/v1/interview/history", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("middleware rejected request: %d", rec.Code)
			}
			if resolved != tt.expected {
				t.Errorf("resolved identity = %q, expected %q", resolved, tt.expected)
			}
		})
	}
}
