package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mindgest/internal/doctree"
	"github.com/dgallion1/mindgest/internal/parser"
	"github.com/dgallion1/mindgest/internal/pipeline"
	"github.com/dgallion1/mindgest/internal/source"
)

// MindmapResponse is the body of every outline response. Meta is the build
// summary on success and {"error": ...} otherwise.
type MindmapResponse struct {
	OK       bool   `json:"ok"`
	Markdown string `json:"markdown"`
	Meta     any    `json:"meta"`
}

func (s *Server) handleMindmap(w http.ResponseWriter, r *http.Request) {
	doc, opts, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	s.build(w, r, doc, opts)
}

// handleUpload builds an outline from a multipart file upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p := source.Payload{
		InputType:   source.InputFile,
		Title:       r.FormValue("title"),
		DetailLevel: r.FormValue("detail_level"),
		File: &source.File{
			Name:          filename,
			Encoding:      "base64",
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		},
	}
	if v := r.FormValue("max_leaves"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.MaxLeaves = n
		}
	}

	doc, opts, ok := s.convert(w, p)
	if !ok {
		return
	}
	s.build(w, r, doc, opts)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "jobs unavailable", http.StatusServiceUnavailable)
		return
	}
	doc, opts, ok := s.decodePayload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(doc, opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "jobs unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// decodePayload reads a JSON payload and converts it. On failure the error
// response is already written.
func (s *Server) decodePayload(w http.ResponseWriter, r *http.Request) (doctree.Document, pipeline.Options, bool) {
	// Base64 inflates files by 4/3; allow 1MB for the rest of the payload.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*4/3+1024*1024)

	var p source.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "payload too large", http.StatusRequestEntityTooLarge)
			return doctree.Document{}, pipeline.Options{}, false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return doctree.Document{}, pipeline.Options{}, false
	}
	return s.convert(w, p)
}

func (s *Server) convert(w http.ResponseWriter, p source.Payload) (doctree.Document, pipeline.Options, bool) {
	opts, err := p.Options(s.opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return doctree.Document{}, pipeline.Options{}, false
	}
	doc, err := s.conv.Document(p)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, source.ErrFileTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		jsonError(w, err.Error(), code)
		return doctree.Document{}, pipeline.Options{}, false
	}
	return doc, opts, true
}

// build runs a synchronous outline build. An empty document is reported as
// ok=false with status 200; oracle failures as 502.
func (s *Server) build(w http.ResponseWriter, r *http.Request, doc doctree.Document, opts pipeline.Options) {
	res, err := s.runner.Run(r.Context(), doc, opts)
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		writeJSON(w, http.StatusOK, MindmapResponse{Meta: map[string]string{"error": err.Error()}})
	case err != nil:
		s.log.Error("outline build failed", "title", doc.Title, "error", err)
		writeJSON(w, http.StatusBadGateway, MindmapResponse{Meta: map[string]string{"error": err.Error()}})
	default:
		writeJSON(w, http.StatusOK, MindmapResponse{OK: true, Markdown: res.Markdown, Meta: res.Meta})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" || name == "_" {
		name = "unnamed"
	}
	return name
}
