package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hyperjump/docanalyzer/internal/config"
)

type mockWatchService struct {
	dirs   []string
	synced []bool
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, syncExisting bool) error {
	m.synced = append(m.synced, syncExisting)
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func newWatchServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(&fakeAnalyzer{}, &cfg.Server, cfg.Limits, zaptest.NewLogger(t), opts...).Handler()
}

func TestWatchDirectories_list(t *testing.T) {
	h := newWatchServer(t, WithWatcher(&mockWatchService{dirs: []string{"/srv/inbox"}}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/srv/inbox" {
		t.Errorf("directories: got %v", out.Directories)
	}
}

func TestWatchDirectories_notEnabled(t *testing.T) {
	h := newWatchServer(t)
	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/watch/directories", nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader([]byte(`{"path":"/tmp"}`))),
		httptest.NewRequest(http.MethodDelete, "/api/v1/watch/directories?path=/tmp", nil),
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusNotImplemented {
			t.Errorf("%s: status %d, want 501", r.Method, w.Code)
		}
	}
}

func TestWatchDirectories_add(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{}
	h := newWatchServer(t, WithWatcher(mock))

	body, _ := json.Marshal(map[string]interface{}{"path": dir, "sync": false})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 1 || mock.dirs[0] != dir {
		t.Errorf("directories: got %v", mock.dirs)
	}
	if len(mock.synced) != 1 || mock.synced[0] {
		t.Errorf("sync flags: got %v, want [false]", mock.synced)
	}
}

func TestWatchDirectories_addRejects(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing directory", `{"path":"` + filepath.Join(dir, "nonexistent") + `"}`, http.StatusNotFound},
		{"file", `{"path":"` + file + `"}`, http.StatusBadRequest},
		{"no path", `{}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockWatchService{}
			h := newWatchServer(t, WithWatcher(mock))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", bytes.NewReader([]byte(tt.body))))
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
			if len(mock.dirs) != 0 {
				t.Errorf("directory added: %v", mock.dirs)
			}
		})
	}
}

func TestWatchDirectories_removePersists(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	mock := &mockWatchService{dirs: []string{dir, other}}
	h := newWatchServer(t, WithWatcher(mock), WithConfigPersistence(configPath, cfg))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(dir), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 1 || mock.dirs[0] != other {
		t.Errorf("directories: got %v", mock.dirs)
	}

	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load saved config: %v", err)
	}
	if len(saved.Watch.Directories) != 1 || saved.Watch.Directories[0] != other {
		t.Errorf("saved directories: got %v", saved.Watch.Directories)
	}
}
