package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"locale-tool/internal/engine"
	"locale-tool/internal/locale"
	"locale-tool/internal/store"
	"locale-tool/internal/template"
)

// errOutsideRoot rejects /api/file paths outside the configured root.
var errOutsideRoot = errors.New("file path is outside the allowed root")

// contentSource is the FilePath recorded for documents posted as JSON.
const contentSource = "<content>"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (s *Server) handleSearchUpload(w http.ResponseWriter, r *http.Request) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	res := s.svc.Search(up.content)
	res.Filename = up.filename
	res.TemplateType = up.templateType
	res.DebugInfo = s.svc.Debug(up.content)
	s.recordSearch(r, up.filename, up.content, res)

	if !res.Success {
		writeError(w, statusFor(res.Err), res.Error)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearchContent(w http.ResponseWriter, r *http.Request) {
	content, status, err := s.readContent(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	res := s.svc.Search(content.Content)
	s.recordSearch(r, contentSource, content.Content, res)

	if !res.Success {
		writeError(w, statusFor(res.Err), res.Error)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyUpload(w http.ResponseWriter, r *http.Request) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	returnFile := false
	if v := r.FormValue("return_file"); v != "" {
		returnFile, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "return_file must be a boolean")
			return
		}
	}

	res := s.svc.Apply(up.content, up.templateType)
	s.recordApply(r, up.filename, up.content, up.templateType, res)
	if !res.Success {
		writeError(w, statusFor(res.Err), res.Error)
		return
	}
	res.Filename = up.filename

	if returnFile {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "processed_"+up.filename))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, res.UpdatedContent)
		return
	}

	res.Message += " (Use return_file=true to download the processed file)"
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApplyContent(w http.ResponseWriter, r *http.Request) {
	content, status, err := s.readContent(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	kind := content.TemplateType
	if kind == "" {
		kind = string(template.BT)
	}

	res := s.svc.Apply(content.Content, kind)
	s.recordApply(r, contentSource, content.Content, kind, res)
	if !res.Success {
		writeError(w, statusFor(res.Err), res.Error)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fileRequest is the body of POST /api/file.
type fileRequest struct {
	FilePath     string `json:"file_path"`
	Operation    string `json:"operation"`
	TemplateType string `json:"template_type"`
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "File path is required")
		return
	}
	if req.Operation == "" {
		req.Operation = string(locale.OpSearch)
	}
	if req.TemplateType == "" {
		req.TemplateType = string(template.BT)
	}

	path, err := resolveFilePath(s.fileRoot, req.FilePath)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	req.FilePath = path

	out, err := s.svc.ProcessFile(req.FilePath, locale.Operation(req.Operation), req.TemplateType)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if out.Search != nil {
		s.recordSearch(r, req.FilePath, "", *out.Search)
		writeJSON(w, http.StatusOK, out.Search)
		return
	}

	s.recordApply(r, req.FilePath, "", req.TemplateType, *out.Apply)
	if !out.Apply.Success {
		writeError(w, statusFor(out.Apply.Err), out.Apply.Error)
		return
	}
	writeJSON(w, http.StatusOK, out.Apply)
}

// resolveFilePath returns path unchanged when root is empty. Otherwise it
// returns the absolute path, which must lie under root. The check is
// lexical; symlinks inside root are followed.
func resolveFilePath(root, path string) (string, error) {
	if root == "" {
		return path, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve file root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve file path: %w", err)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return absPath, nil
}

// upload is a validated multipart document.
type upload struct {
	filename     string
	content      string
	templateType string
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, int, error) {
	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxBytes)+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, http.StatusRequestEntityTooLarge, locale.ErrDocumentTooLarge
		}
		return upload{}, http.StatusBadRequest, errors.New("File is required")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, http.StatusBadRequest, errors.New("File is required")
	}
	defer file.Close()

	kind := r.FormValue("template_type")
	if kind == "" {
		kind = string(template.BT)
	}
	if kind != string(template.BT) && kind != string(template.BVT) {
		return upload{}, http.StatusBadRequest, template.ErrInvalidTemplateKind
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	content, err := locale.DecodeUpload(header.Filename, data)
	if err != nil {
		return upload{}, http.StatusBadRequest, err
	}

	return upload{filename: header.Filename, content: content, templateType: kind}, 0, nil
}

// contentRequest is the body of the /content endpoints.
type contentRequest struct {
	Content      string
	TemplateType string
}

func (s *Server) readContent(r *http.Request) (contentRequest, int, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return contentRequest{}, http.StatusBadRequest, errors.New("Content is required")
	}
	field, ok := raw["content"]
	if !ok {
		return contentRequest{}, http.StatusBadRequest, errors.New("Content is required")
	}

	var req contentRequest
	if err := json.Unmarshal(field, &req.Content); err != nil {
		return contentRequest{}, http.StatusBadRequest, errors.New("Content must be a string")
	}
	if kind, ok := raw["template_type"]; ok {
		if err := json.Unmarshal(kind, &req.TemplateType); err != nil {
			return contentRequest{}, http.StatusBadRequest, template.ErrInvalidTemplateKind
		}
	}
	return req, 0, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, locale.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, locale.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, template.ErrInvalidTemplateKind),
		errors.Is(err, template.ErrTemplateDisabled),
		errors.Is(err, locale.ErrInvalidOperation),
		errors.Is(err, locale.ErrNotUTF8),
		errors.Is(err, locale.ErrFileType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) recordSearch(r *http.Request, source, content string, res locale.SearchResult) {
	run := store.NewRun(source, string(locale.OpSearch), content)
	run.Untemplated = res.Count
	run.Success = res.Success
	run.Error = res.Error
	s.record(r.Context(), run)
}

func (s *Server) recordApply(r *http.Request, source, content, kind string, res locale.RewriteResult) {
	run := store.NewRun(source, string(locale.OpApply), content)
	run.TemplateKind = kind
	run.Replacements = res.ReplacementsCount
	run.Success = res.Success
	run.Error = res.Error
	s.record(r.Context(), run)
}
