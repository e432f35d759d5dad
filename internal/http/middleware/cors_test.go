package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		preflight   bool
		wantCode    int
		wantAllow   string
		wantHandler bool
	}{
		{name: "listed origin", allowed: []string{"https://app.example.com"}, origin: "https://app.example.com", method: http.MethodGet, wantCode: http.StatusOK, wantAllow: "https://app.example.com", wantHandler: true},
		{name: "unknown origin", allowed: []string{"https://app.example.com"}, origin: "https://evil.example", method: http.MethodGet, wantCode: http.StatusOK, wantHandler: true},
		{name: "wildcard echoes origin", allowed: []string{" * "}, origin: "https://any.example", method: http.MethodGet, wantCode: http.StatusOK, wantAllow: "https://any.example", wantHandler: true},
		{name: "preflight short-circuits", allowed: []string{"https://app.example.com"}, origin: "https://app.example.com", method: http.MethodOptions, preflight: true, wantCode: http.StatusNoContent, wantAllow: "https://app.example.com"},
		{name: "options without preflight header", allowed: []string{"https://app.example.com"}, origin: "https://app.example.com", method: http.MethodOptions, wantCode: http.StatusOK, wantAllow: "https://app.example.com", wantHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(tt.method, "/v1/inbox", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantHandler, called)
			if tt.wantAllow != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			}
		})
	}
}
