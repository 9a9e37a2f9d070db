package main

import (
	"net/http/httptest"
	"testing"

	svc "github.com/prepwise/backend/services"
)

func TestCheckOrigin(t *testing.T) {
	// Origins mirror the deployments this backend serves: the Vite dev
	// server and the hosted frontend.
	tests := []struct {
		name           string
		allowedOrigins string
		requestOrigin  string
		expected       bool
	}{
		{
			name:           "Dev frontend allowed",
			allowedOrigins: "http://localhost:5173",
			requestOrigin:  "http://localhost:5173",
			expected:       true,
		},
		{
			name:           "Hosted frontend second in list",
			allowedOrigins: "http://localhost:5173,https://app.prepwise.dev",
			requestOrigin:  "https://app.prepwise.dev",
			expected:       true,
		},
		{
			name:           "Unknown origin denied",
			allowedOrigins: "http://localhost:5173,https://app.prepwise.dev",
			requestOrigin:  "https://evil.example.com",
			expected:       false,
		},
		{
			name:           "Empty allow-list denies everything",
			allowedOrigins: "",
			requestOrigin:  "http://localhost:5173",
			expected:       false,
		},
		{
			name:           "Whitespace around entries tolerated",
			allowedOrigins: "http://localhost:5173, https://app.prepwise.dev",
			requestOrigin:  "https://app.prepwise.dev",
			expected:       true,
		},
		{
			name:           "Port mismatch denied",
			allowedOrigins: "http://localhost:5173",
			requestOrigin:  "http://localhost:8080",
			expected:       false,
		},
		{
			name:           "Scheme mismatch denied",
			allowedOrigins: "https://app.prepwise.dev",
			requestOrigin:  "http://app.prepwise.dev",
			expected:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/ws", nil)
			req.Header.Set("Origin", tt.requestOrigin)

			if got := svc.CheckOrigin(req, tt.allowedOrigins); got != tt.expected {
				t.Errorf("CheckOrigin() = %v, expected %v for origin %s against %q",
					got, tt.expected, tt.requestOrigin, tt.allowedOrigins)
			}
		})
	}
}
