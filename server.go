package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/net/netutil"
)

//go:embed templates/index.html
var templateFS embed.FS

// Server is the web front end over the codec: upload a cover, type a
// message, download the stego PNG.
type Server struct {
	cfg    ServeConfig
	log    *slog.Logger
	tmpl   *template.Template
	params Params
}

// pageData feeds the single page template. Zero fields render nothing.
type pageData struct {
	Error    string
	Notice   string
	Download string
	Revealed string
	Report   *Report
}

func NewServer(cfg ServeConfig, logger *slog.Logger) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Server{cfg: cfg, log: logger, tmpl: tmpl, params: DefaultParams()}, nil
}

// Routes wires the handler set behind gzip response compression.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/encode", s.handleEncode)
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/performance", s.handlePerformance)
	mux.HandleFunc("/download/", s.handleDownload)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return gzhttp.GzipHandler(s.logRequests(mux))
}

// Run serves until ctx is cancelled, then drains connections. The listener
// is capped at the configured number of simultaneous connections.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	listener = netutil.LimitListener(listener, s.cfg.MaxConns)

	srv := &http.Server{Handler: s.Routes(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", "addr", listener.Addr().String())
	err = srv.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Error("render", "err", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	s.render(w, status, pageData{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	data = append(data, '\n')
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.render(w, http.StatusOK, pageData{})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// formPixmap decodes the uploaded form file into channel planes.
func (s *Server) formPixmap(r *http.Request, field string) (*Pixmap, string, error) {
	file, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %q upload", field)
	}
	defer file.Close()

	pm, err := DecodePixmap(file, formatForPath(hdr.Filename))
	if err != nil {
		return nil, "", fmt.Errorf("decode %q: %v", hdr.Filename, err)
	}
	return pm, hdr.Filename, nil
}

func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) error {
	limit := s.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(limit)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		s.renderError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	message := r.FormValue("message")
	if message == "" {
		s.renderError(w, http.StatusBadRequest, "message is required")
		return
	}
	cover, name, err := s.formPixmap(r, "image")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	stego, err := EmbedMessage(cover, message, r.FormValue("key"), s.params)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	outName := stegoFileName(name)
	if err := SavePixmap(filepath.Join(s.cfg.OutputDir, outName), stego); err != nil {
		s.log.Error("save stego", "name", outName, "err", err)
		s.renderError(w, http.StatusInternalServerError, "could not save the result")
		return
	}

	data := pageData{Notice: "message embedded", Download: "/download/" + outName}
	if rep, err := Evaluate(cover, stego); err == nil {
		data.Report = &rep
	} else {
		s.log.Warn("evaluate", "err", err)
	}
	s.log.Info("encoded", "name", outName, "payload_bytes", len(message))
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		s.renderError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	stego, _, err := s.formPixmap(r, "image")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := ExtractMessage(stego, r.FormValue("key"), s.params)
	if err != nil {
		if errors.Is(err, ErrTruncated) {
			s.renderError(w, http.StatusBadRequest, "this image carries no readable payload")
			return
		}
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.render(w, http.StatusOK, pageData{Notice: "message revealed", Revealed: text})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, pageData{})
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseUpload(w, r); err != nil {
		s.renderError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	orig, _, err := s.formPixmap(r, "original")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	stego, _, err := s.formPixmap(r, "stego")
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := Evaluate(orig, stego)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.FormValue("format") == "json" {
		writeJSON(w, rep)
		return
	}
	s.render(w, http.StatusOK, pageData{Notice: "comparison done", Report: &rep})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	http.ServeFile(w, r, path)
}

// stegoFileName derives a download name from the uploaded cover's name
// plus a random tag, so repeated uploads never collide on disk.
func stegoFileName(coverName string) string {
	base := strings.TrimSuffix(filepath.Base(coverName), filepath.Ext(coverName))
	base = sanitizeFilename(base)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("stego-%s-%s.png", base, uuid.NewString()[:8])
}

// sanitizeFilename collapses path and shell noise out of a user-supplied
// name, leaving something safe to store and echo back.
func sanitizeFilename(name string) string {
	sanitized := make([]rune, 0, len(name))
	lastHyphen := false
	for _, r := range strings.TrimSpace(name) {
		replace := r
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ', '\t':
			replace = '-'
		}
		if replace == '-' {
			if lastHyphen {
				continue
			}
			lastHyphen = true
		} else {
			lastHyphen = false
		}
		sanitized = append(sanitized, replace)
		if len(sanitized) >= 40 {
			break
		}
	}
	return strings.Trim(string(sanitized), "-")
}
