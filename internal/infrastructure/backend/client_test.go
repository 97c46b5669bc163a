package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, 2*time.Minute, zerolog.Nop())
}

func TestLogin_SendsFormEncodedCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/jwt/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != mimeForm {
			t.Fatalf("expected form encoding, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "prof@example.edu" || r.PostForm.Get("password") != "pw" {
			t.Fatalf("unexpected form values: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", mimeJSON)
		_, _ = w.Write([]byte(`{"access_token":"tok-123"}`))
	})

	token, err := c.Login(context.Background(), "prof@example.edu", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"LOGIN_BAD_CREDENTIALS"}`))
	})

	_, err := c.Login(context.Background(), "x@y.z", "nope")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCurrentUser_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-123" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		w.Header().Set("Content-Type", mimeJSON)
		_, _ = w.Write([]byte(`{"id":7,"email":"prof@example.edu","role":"teacher","grading_count":4}`))
	})

	user, err := c.CurrentUser(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.ID != 7 || user.Role != domain.RoleTeacher || user.GradingCount != 4 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestCurrentUser_RejectedTokenSurfacesUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Unauthorized"}`))
	})

	_, err := c.CurrentUser(context.Background(), "stale")
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusUnauthorized || ue.Detail != "Unauthorized" {
		t.Fatalf("unexpected upstream error %+v", ue)
	}
}

func TestJobStatus_RelaysBodyVerbatim(t *testing.T) {
	const payload = `{"job_id":"abc","state":"running","progress":42}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/canvas/jobs/abc" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", mimeJSON)
		_, _ = w.Write([]byte(payload))
	})

	resp, err := c.JobStatus(context.Background(), "abc")
	if err != nil {
		t.Fatalf("job status: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != payload {
		t.Fatalf("body not relayed verbatim: %d %s", resp.Status, resp.Body)
	}
}

func TestJobStatus_BackendErrorCarriesStatusAndDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"job not found"}`))
	})

	_, err := c.JobStatus(context.Background(), "missing")
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusNotFound || ue.Detail != "job not found" {
		t.Fatalf("unexpected upstream error %+v", ue)
	}
}

func TestPostGrades_SendsFormBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/canvas/post-grades/job-9" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("canvas_url") != "https://canvas.example.edu" || r.PostForm.Get("api_key") != "key-1" {
			t.Fatalf("unexpected form values: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", mimeJSON)
		_, _ = w.Write([]byte(`{"status":"posted","count":31}`))
	})

	resp, err := c.PostGrades(context.Background(), "job-9", "https://canvas.example.edu", "key-1")
	if err != nil {
		t.Fatalf("post grades: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Status)
	}
}

func TestJobTimeoutFloor(t *testing.T) {
	c := New("http://localhost:1", 0, time.Second, zerolog.Nop())
	if c.jobs.Timeout < minJobTimeout {
		t.Fatalf("job timeout %v below the contract floor", c.jobs.Timeout)
	}
}

func TestUpstreamDetail_MessageFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream misbehaving"}`))
	})

	err := c.RecordLogin(context.Background(), "tok")
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Detail != "upstream misbehaving" {
		t.Fatalf("message fallback not applied: %+v", ue)
	}
}
