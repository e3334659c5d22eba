package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ErlanBelekov/departments-api/internal/requestid"
	"github.com/ErlanBelekov/departments-api/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRequestIDEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, requestid.FromContext(c.Request.Context()))
	})
	return r
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "abc-123")
	newRequestIDEngine().ServeHTTP(w, req)

	if got := w.Header().Get(requestid.Header); got != "abc-123" {
		t.Errorf("header = %q, want abc-123", got)
	}
	if w.Body.String() != "abc-123" {
		t.Errorf("context id = %q, want abc-123", w.Body.String())
	}
}

func TestRequestID_ReplacesMissingOrUnsafe(t *testing.T) {
	for _, incoming := range []string{"", "has space", strings.Repeat("x", 200)} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set(requestid.Header, incoming)
		}
		newRequestIDEngine().ServeHTTP(w, req)

		got := w.Header().Get(requestid.Header)
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("incoming %q: header %q is not a UUID", incoming, got)
		}
		if w.Body.String() != got {
			t.Errorf("incoming %q: context %q != header %q", incoming, w.Body.String(), got)
		}
	}
}

func TestSecurity_SetsNoStore(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Security())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/")

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}
