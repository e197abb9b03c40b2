package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
)

func TestNtfySendPostsToTopic(t *testing.T) {
	var gotPath, gotTitle, gotClick, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotClick = r.Header.Get("Click")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	s := NewNtfySender(config.Ntfy{
		ServerURL:    srv.URL,
		DefaultTopic: "default-topic",
		Token:        "tk-123",
	}, testLogger())

	user := &models.User{Name: "alice", NtfyTopic: "alice-media"}
	msg := Message{Subject: "New episode", Body: "It aired", ClickURL: "https://example.test/ep"}
	if !s.Send(context.Background(), user, msg) {
		t.Fatal("send should succeed")
	}
	if gotPath != "/alice-media" {
		t.Errorf("path = %q, user topic should win over default", gotPath)
	}
	if gotTitle != "New episode" {
		t.Errorf("title header = %q", gotTitle)
	}
	if gotClick != "https://example.test/ep" {
		t.Errorf("click header = %q", gotClick)
	}
	if gotAuth != "Bearer tk-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody != "It aired" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestNtfySendNotConfigured(t *testing.T) {
	s := NewNtfySender(config.Ntfy{}, testLogger())
	user := &models.User{Name: "alice"}
	if s.Send(context.Background(), user, Message{Subject: "x"}) {
		t.Fatal("unconfigured ntfy must report failure")
	}
}

func TestNtfySendNoTopic(t *testing.T) {
	s := NewNtfySender(config.Ntfy{ServerURL: "http://ntfy.example"}, testLogger())
	user := &models.User{Name: "alice"}
	if s.Send(context.Background(), user, Message{Subject: "x"}) {
		t.Fatal("missing topic must report failure")
	}
}

func TestNtfySendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewNtfySender(config.Ntfy{ServerURL: srv.URL, DefaultTopic: "t"}, testLogger())
	if s.Send(context.Background(), &models.User{Name: "x"}, Message{Subject: "x"}) {
		t.Fatal("rejected send must report failure")
	}
}
