package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"locale-tool/internal/locale"
	"locale-tool/internal/store"
)

type memRecorder struct {
	mu   sync.Mutex
	runs []store.Run
}

func (m *memRecorder) Record(_ context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func newTestServer(rec store.Recorder) http.Handler {
	return NewServer(locale.NewService(1<<20), Options{
		MaxDocumentBytes:   1 << 20,
		CORSAllowedOrigins: []string{"*"},
		Recorder:           rec,
	}).Routes()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postUpload(t *testing.T, h http.Handler, path, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

const page = `<div>
  <span>안녕하세요</span>
  <input placeholder="검색어를 입력하세요" />
</div>`

func TestHealth(t *testing.T) {
	h := newTestServer(nil)
	for _, path := range []string{"/api/health", "/api/health/"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
		body := decode(t, w)
		if body["status"] != "healthy" || body["service"] != serviceName || body["version"] != serviceVersion {
			t.Errorf("%s body = %v", path, body)
		}
	}
}

func TestSearchContent(t *testing.T) {
	rec := &memRecorder{}
	h := newTestServer(rec)

	w := postJSON(t, h, "/api/search/content", map[string]any{"content": page})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["count"] != float64(3) {
		t.Errorf("body = %v", body)
	}
	if len(rec.runs) != 1 || rec.runs[0].Operation != "search" || rec.runs[0].Untemplated != 3 {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestSearchContentValidation(t *testing.T) {
	h := newTestServer(nil)

	w := postJSON(t, h, "/api/search/content", map[string]any{"text": page})
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Content is required" {
		t.Errorf("missing content: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, h, "/api/search/content", map[string]any{"content": 42})
	if w.Code != http.StatusBadRequest || decode(t, w)["error"] != "Content must be a string" {
		t.Errorf("non-string content: %d %s", w.Code, w.Body.String())
	}
}

func TestApplyContent(t *testing.T) {
	h := newTestServer(nil)

	w := postJSON(t, h, "/api/apply/content", map[string]any{"content": page})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	want := strings.Replace(page, "<span>안녕하세요</span>", `<span>{bt("W#", "안녕하세요")}</span>`, 1)
	if body["updated_content"] != want || body["replacements_count"] != float64(1) {
		t.Errorf("body = %v", body)
	}

	w = postJSON(t, h, "/api/apply/content", map[string]any{"content": page, "template_type": "bvt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bvt status = %d", w.Code)
	}
	if got := decode(t, w)["error"]; !strings.Contains(got.(string), "temporarily disabled") {
		t.Errorf("bvt error = %v", got)
	}

	w = postJSON(t, h, "/api/apply/content", map[string]any{"content": page, "template_type": "xyz"})
	if w.Code != http.StatusBadRequest || decode(t, w)["success"] != false {
		t.Errorf("xyz: %d %s", w.Code, w.Body.String())
	}
}

func TestSearchUpload(t *testing.T) {
	h := newTestServer(nil)

	w := postUpload(t, h, "/api/search/", "Page.tsx", page, map[string]string{"template_type": "bt"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["filename"] != "Page.tsx" || body["template_type"] != "bt" {
		t.Errorf("body = %v", body)
	}
	debug, _ := body["debug_info"].(map[string]any)
	if debug == nil || debug["korean_segments_found"] != float64(3) {
		t.Errorf("debug_info = %v", body["debug_info"])
	}

	w = postUpload(t, h, "/api/search", "notes.txt", page, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("txt upload status = %d", w.Code)
	}
}

func TestApplyUploadReturnFile(t *testing.T) {
	h := newTestServer(nil)

	w := postUpload(t, h, "/api/apply", "Page.tsx", `<b>확인</b>`, map[string]string{"return_file": "true"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "processed_Page.tsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if w.Body.String() != `<b>{bt("W#", "확인")}</b>` {
		t.Errorf("body = %q", w.Body.String())
	}

	w = postUpload(t, h, "/api/apply", "Page.tsx", `<b>확인</b>`, nil)
	body := decode(t, w)
	if !strings.HasSuffix(body["message"].(string), "(Use return_file=true to download the processed file)") {
		t.Errorf("message = %v", body["message"])
	}
}

func TestFileEndpoint(t *testing.T) {
	h := newTestServer(nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "Page.tsx")
	if err := os.WriteFile(path, []byte(`<b>확인</b>`), 0644); err != nil {
		t.Fatal(err)
	}

	w := postJSON(t, h, "/api/file/", map[string]any{"file_path": path})
	if w.Code != http.StatusOK || decode(t, w)["count"] != float64(1) {
		t.Errorf("search: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, h, "/api/file", map[string]any{"file_path": path, "operation": "apply"})
	if w.Code != http.StatusOK {
		t.Fatalf("apply: %d %s", w.Code, w.Body.String())
	}
	if decode(t, w)["backup_created"] != path+locale.BackupSuffix {
		t.Errorf("backup not reported: %s", w.Body.String())
	}

	w = postJSON(t, h, "/api/file", map[string]any{"file_path": filepath.Join(dir, "missing.tsx")})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d", w.Code)
	}

	w = postJSON(t, h, "/api/file", map[string]any{"file_path": path, "operation": "delete"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad operation status = %d", w.Code)
	}

	w = postJSON(t, h, "/api/file", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d", w.Code)
	}
}

func TestFileEndpointRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	for _, dir := range []string{root, outside} {
		if err := os.WriteFile(filepath.Join(dir, "Page.tsx"), []byte(`<b>확인</b>`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	h := NewServer(locale.NewService(0), Options{FileRoot: root}).Routes()

	w := postJSON(t, h, "/api/file", map[string]any{"file_path": filepath.Join(root, "Page.tsx")})
	if w.Code != http.StatusOK {
		t.Errorf("inside root: %d %s", w.Code, w.Body.String())
	}

	for _, p := range []string{
		filepath.Join(outside, "Page.tsx"),
		filepath.Join(root, "..", filepath.Base(outside), "Page.tsx"),
	} {
		w = postJSON(t, h, "/api/file", map[string]any{"file_path": p, "operation": "apply"})
		if w.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", p, w.Code)
		}
	}
	got, err := os.ReadFile(filepath.Join(outside, "Page.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `<b>확인</b>` {
		t.Errorf("file outside root rewritten: %q", got)
	}
}

func TestResolveFilePath(t *testing.T) {
	tests := []struct {
		root, path string
		wantErr    bool
	}{
		{"", "/etc/hosts", false},
		{"/srv/app", "/srv/app/src/a.tsx", false},
		{"/srv/app", "/srv/app", false},
		{"/srv/app", "/srv/application/a.tsx", true},
		{"/srv/app", "/srv/app/../other/a.tsx", true},
		{"/srv/app", "/etc/hosts", true},
	}
	for _, tt := range tests {
		_, err := resolveFilePath(tt.root, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveFilePath(%q, %q) error = %v, wantErr %v", tt.root, tt.path, err, tt.wantErr)
		}
	}
}

func TestCORS(t *testing.T) {
	h := NewServer(locale.NewService(0), Options{CORSAllowedOrigins: []string{"https://app.example"}}).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/search/content", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Errorf("allowed origin headers = %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/search/content", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed preflight status = %d", w.Code)
	}
}
