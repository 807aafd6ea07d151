package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		apiKey string
		path   string
		header string
		want   int
	}{
		{"disabled", "", "/governance/stats", "", http.StatusNoContent},
		{"missing key", "secret", "/governance/stats", "", http.StatusUnauthorized},
		{"wrong key", "secret", "/governance/stats", "Bearer nope", http.StatusUnauthorized},
		{"valid key", "secret", "/governance/stats", "Bearer secret", http.StatusNoContent},
		{"metrics exempt", "secret", "/metrics", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			New(tt.apiKey).AuthMiddleware(ok).ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
		})
	}
}
