package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/groupbuy-claims/internal/model"
)

type stubParser struct {
	principal model.Principal
	err       error
}

func (s stubParser) Parse(string) (model.Principal, error) {
	return s.principal, s.err
}

type stubRecorder struct {
	users []model.User
	err   error
}

func (s *stubRecorder) UpsertUser(_ context.Context, user model.User) error {
	s.users = append(s.users, user)
	return s.err
}

type stubChecker struct {
	admin bool
	err   error
}

func (s stubChecker) IsAdmin(context.Context, int64) (bool, error) {
	return s.admin, s.err
}

func newAuthRouter(parser TokenParser, users UserRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(parser, users))
	router.GET("/whoami", func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID})
	})
	return router
}

func TestAuth(t *testing.T) {
	alice := model.Principal{UserID: 101, Username: "alice"}

	tests := []struct {
		name   string
		header string
		parser stubParser
		want   int
	}{
		{"valid token", "Bearer token", stubParser{principal: alice}, http.StatusOK},
		{"missing header", "", stubParser{principal: alice}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", stubParser{principal: alice}, http.StatusUnauthorized},
		{"blank token", "Bearer   ", stubParser{principal: alice}, http.StatusUnauthorized},
		{"rejected token", "Bearer bad", stubParser{err: errors.New("nope")}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &stubRecorder{}
			router := newAuthRouter(tc.parser, recorder)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d", resp.Code, tc.want)
			}
			if tc.want == http.StatusOK && len(recorder.users) != 1 {
				t.Fatalf("users recorded = %v, want the caller upserted", recorder.users)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	alice := model.Principal{UserID: 101, Username: "alice"}

	tests := []struct {
		name    string
		checker stubChecker
		want    int
	}{
		{"admin", stubChecker{admin: true}, http.StatusOK},
		{"not admin", stubChecker{admin: false}, http.StatusForbidden},
		{"roster error", stubChecker{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(Auth(stubParser{principal: alice}, &stubRecorder{}))
			router.Use(AdminOnly(tc.checker))
			router.GET("/admin-area", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})

			req := httptest.NewRequest(http.MethodGet, "/admin-area", nil)
			req.Header.Set("Authorization", "Bearer token")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d", resp.Code, tc.want)
			}
		})
	}
}
