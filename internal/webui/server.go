// Package webui exposes a minimal HTTP server for interactive batch
// processing: an HTML upload form and a JSON API.
//
// Routes:
//
//	GET  /            → upload form
//	POST /api/process → runs the pipeline on an uploaded CSV, returns JSON
//	GET  /api/health  → liveness probe
package webui

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"

	"txnpipe/internal/insight"
	csvparser "txnpipe/internal/parser/csv"
	"txnpipe/internal/pipeline"
	"txnpipe/internal/stats"
	"txnpipe/internal/tabular"
)

// maxUploadBytes caps the accepted request body.
const maxUploadBytes = 64 << 20

// previewRows bounds the cleaned sample returned to the browser.
const previewRows = 10

// Config controls server startup.
type Config struct {
	Addr    string
	Version string
	Job     string
	Workers int
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config) *Server {
	if cfg.Job == "" {
		cfg.Job = "txnpipe-web"
	}
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/process", s.handleProcess)
	s.mux.HandleFunc("/api/health", s.handleHealth)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	_ = s.tmpl.Execute(w, nil)
}

// processResponse is the JSON document returned by /api/process.
type processResponse struct {
	Validation     validation       `json:"validation"`
	Statistics     stats.Report     `json:"statistics"`
	Insights       insight.Analysis `json:"insights"`
	CleanedPreview []tabular.Record `json:"cleaned_preview"`
	InvalidRows    []tabular.Record `json:"invalid_rows"`
	SkippedRows    int              `json:"skipped_rows"`
}

type validation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file")
		return
	}
	defer f.Close()

	p := csvparser.NewParser(csvparser.Options{HasHeader: true, TrimSpace: true})
	table, skipped, err := p.Parse(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable csv: "+err.Error())
		return
	}
	if table.Len() == 0 {
		writeError(w, http.StatusBadRequest, "empty csv")
		return
	}

	analysis := insight.Analyze(table)

	res, err := pipeline.Run(r.Context(), table, pipeline.Options{Job: s.cfg.Job, Workers: s.cfg.Workers})
	if err != nil {
		var schemaErr *pipeline.SchemaError
		if errors.As(err, &schemaErr) {
			writeError(w, http.StatusBadRequest, schemaErr.Msg)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preview := res.Valid.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	if preview == nil {
		preview = []tabular.Record{}
	}
	invalid := res.Invalid.Rows
	if invalid == nil {
		invalid = []tabular.Record{}
	}

	writeJSON(w, http.StatusOK, processResponse{
		Validation:     validation{IsValid: true, Errors: []string{}},
		Statistics:     res.Stats,
		Insights:       analysis,
		CleanedPreview: preview,
		InvalidRows:    invalid,
		SkippedRows:    skipped,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API running",
		"version": s.cfg.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
