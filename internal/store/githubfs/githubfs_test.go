package githubfs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jimdaga/carspot/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wrap emulates the contents API's 60-column base64 wrapping.
func wrap(s string) string {
	var out string
	for len(s) > 60 {
		out += s[:60] + "\n"
		s = s[60:]
	}
	return out + s
}

func TestGetFileDecodesWrappedBase64(t *testing.T) {
	content := "name,count,streak\nRico,3,1\nAnders,0,0\nLive,0,0\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/jimdaga/carspot-data/contents/totals.csv" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("expected ref=main, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"content": wrap(base64.StdEncoding.EncodeToString([]byte(content))),
			"sha":     "abc123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "jimdaga/carspot-data", "main")
	data, sha, err := c.GetFile(context.Background(), "totals.csv")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content drifted: %q", string(data))
	}
	if sha != "abc123" {
		t.Errorf("expected sha abc123, got %q", sha)
	}
}

func TestGetFileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "o/r", "main")
	_, _, err := c.GetFile(context.Background(), "totals.csv")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutFileSendsShaForExistingFile(t *testing.T) {
	var put map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]string{
				"content": base64.StdEncoding.EncodeToString([]byte("old")),
				"sha":     "oldsha",
			})
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&put); err != nil {
				t.Errorf("decode put body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "o/r", "main")
	if err := c.PutFile(context.Background(), "history.csv", []byte("new"), "Update history.csv"); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if put["sha"] != "oldsha" {
		t.Errorf("expected sha oldsha in put body, got %q", put["sha"])
	}
	if put["branch"] != "main" {
		t.Errorf("expected branch main, got %q", put["branch"])
	}
	decoded, err := base64.StdEncoding.DecodeString(put["content"])
	if err != nil || string(decoded) != "new" {
		t.Errorf("expected base64 content %q, got %q (%v)", "new", put["content"], err)
	}
}

func TestPutFileOmitsShaForNewFile(t *testing.T) {
	var put map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&put)
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "o/r", "main")
	if err := c.PutFile(context.Background(), "totals.csv", []byte("x"), "Update totals.csv"); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if _, ok := put["sha"]; ok {
		t.Errorf("expected no sha for a new file, got %q", put["sha"])
	}
}

func TestLoadTreatsAPIFailureAsFirstRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(NewClient(srv.URL, "bad", "o/r", "main"), nil, discardLogger())
	totals, err := s.LoadTotals(context.Background())
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	if len(totals) != 0 {
		t.Errorf("expected first-run defaults on auth failure, got %v", totals)
	}
}

// recordingPusher captures scheduled pushes.
type recordingPusher struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (p *recordingPusher) PushFile(path string, content []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.files == nil {
		p.files = make(map[string][]byte)
	}
	p.files[path] = content
	return nil
}

func TestSaveSchedulesPushAndReturnsImmediately(t *testing.T) {
	pusher := &recordingPusher{}
	s := New(NewClient("http://unused.invalid", "tok", "o/r", "main"), pusher, discardLogger())

	rows := []models.Spotter{{Name: "Rico", Count: 1, Streak: 1}}
	if err := s.SaveTotals(context.Background(), rows); err != nil {
		t.Fatalf("SaveTotals: %v", err)
	}

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	if _, ok := pusher.files["totals.csv"]; !ok {
		t.Fatalf("expected totals.csv push scheduled, got %v", pusher.files)
	}
}
