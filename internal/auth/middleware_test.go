package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"buzzatt/internal/apperr"
	"buzzatt/internal/model"
)

type stubAuthenticator struct {
	claims Claims
	err    error
}

func (s stubAuthenticator) Authenticate(context.Context, string) (Claims, error) {
	return s.claims, s.err
}

func newProtectedRouter(authn Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/lecturer", Bearer(authn), RequireProfile(model.ProfileLecturer), func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.Subject})
	})
	return r
}

func doGet(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/lecturer", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerMiddleware(t *testing.T) {
	lecturer := Claims{Role: model.ProfileLecturer}
	lecturer.Subject = "turing@example.com"
	student := Claims{Role: model.ProfileStudent}
	student.Subject = "ada@example.com"

	tests := []struct {
		name      string
		authn     Authenticator
		header    string
		wantCode  int
		challenge bool
	}{
		{"missing header", stubAuthenticator{claims: lecturer}, "", http.StatusUnauthorized, true},
		{"wrong scheme", stubAuthenticator{claims: lecturer}, "Basic abc", http.StatusUnauthorized, true},
		{"invalid token", stubAuthenticator{err: ErrInvalidToken}, "Bearer bad", http.StatusUnauthorized, true},
		{"student", stubAuthenticator{claims: student}, "Bearer ok", http.StatusForbidden, false},
		{"lecturer", stubAuthenticator{claims: lecturer}, "Bearer ok", http.StatusOK, false},
		{"lower-case scheme", stubAuthenticator{claims: lecturer}, "bearer ok", http.StatusOK, false},
		{"revocation store down", stubAuthenticator{err: apperr.Dependency("check", errors.New("down"))}, "Bearer ok", http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newProtectedRouter(tt.authn), tt.header)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body)
			}
			if got := w.Header().Get("WWW-Authenticate") == "Bearer"; got != tt.challenge {
				t.Errorf("WWW-Authenticate present = %v, want %v", got, tt.challenge)
			}
		})
	}
}

func TestBearerWithServiceRejectsRevokedToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeUsers())
	tok, err := Issue("turing@example.com", model.ProfileLecturer, testIssuer, testKey, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	r := newProtectedRouter(svc)

	if w := doGet(r, "Bearer "+tok.Value); w.Code != http.StatusOK {
		t.Fatalf("fresh token: status %d", w.Code)
	}

	claims, err := svc.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatal(err)
	}
	if w := doGet(r, "Bearer "+tok.Value); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status %d, want 401", w.Code)
	}
}
