package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct{ user, scope, key string }

func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, seen *struct {
	key    string
	replay bool
}) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), IdempotencyValidator(opts, lookup))
	h := func(c *gin.Context) {
		seen.key, _ = GetIdempotencyKey(c)
		seen.replay = IsReplay(c)
		c.Status(http.StatusAccepted)
	}
	r.POST("/events", h)
	r.GET("/events", h)
	return r
}

func TestIdempotencyValidator_ScopeIsRouteTemplate(t *testing.T) {
	var calls []lookupCall
	lookup := func(_ context.Context, user, scope, key string, _ time.Time) (bool, error) {
		calls = append(calls, lookupCall{user, scope, key})
		return key == "seen-before", nil
	}
	var seen struct {
		key    string
		replay bool
	}
	r := idemRouter(IdempotencyOptions{}, lookup, &seen)

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set(HeaderIdempotencyKey, "seen-before")
	req.Header.Set(HeaderUserID, "u1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(calls) != 1 || calls[0] != (lookupCall{"u1", "/events", "seen-before"}) {
		t.Fatalf("unexpected lookup calls: %+v", calls)
	}
	if seen.key != "seen-before" || !seen.replay {
		t.Fatalf("handler saw key=%q replay=%v", seen.key, seen.replay)
	}
}

func TestIdempotencyValidator_SkipsSafeMethodsAndMissingHeader(t *testing.T) {
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	var seen struct {
		key    string
		replay bool
	}
	r := idemRouter(IdempotencyOptions{}, lookup, &seen)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events", nil))

	if called || seen.key != "" || seen.replay {
		t.Fatalf("validator should be a no-op: called=%v seen=%+v", called, seen)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	var seen struct {
		key    string
		replay bool
	}
	r := idemRouter(IdempotencyOptions{MaxLen: 8, Pattern: regexp.MustCompile(`^[a-z]+$`)}, nil, &seen)

	for _, key := range []string{"UPPER", "waytoolongkey", "has space"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q -> %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_LookupErrorIsNotReplay(t *testing.T) {
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		return true, errors.New("db down")
	}
	var seen struct {
		key    string
		replay bool
	}
	r := idemRouter(IdempotencyOptions{}, lookup, &seen)

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted || seen.replay || seen.key != "k1" {
		t.Fatalf("lookup failure must not block or flag: code=%d seen=%+v", w.Code, seen)
	}
}
