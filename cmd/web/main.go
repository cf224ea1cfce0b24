package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/config"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/export"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/ncbi"
)

// Page carries the state rendered into base.html.
type Page struct {
	Current *Run
	Error   string
}

var templates *template.Template

func loadTemplates(dir string) error {
	t := template.New("")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".html") {
			if _, err := t.ParseFiles(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	templates = t
	return nil
}

// session holds the current analysis. It is replaced wholesale on each
// new upload; exports always reflect what is on screen.
var (
	sessionMu sync.Mutex
	current   *Run
)

func setCurrent(r *Run) {
	sessionMu.Lock()
	current = r
	sessionMu.Unlock()
}

func getCurrent() *Run {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return current
}

func (r *Run) table() *composition.Table {
	return &composition.Table{Rows: r.Rows, Summary: r.Summary}
}

// statusResponseWriter captures status and bytes written for logging
type statusResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// loggingMiddleware logs each request with method, path, status, size and duration
func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(srw, r)
		if srw.status == 0 {
			srw.status = http.StatusOK
		}
		logger.Info("request",
			"remote", r.RemoteAddr, "method", r.Method, "uri", r.URL.RequestURI(),
			"status", srw.status, "bytes", srw.written, "duration", time.Since(start))
	})
}

// userMessage maps an analysis error to an HTTP status and a single
// user-visible message naming the failure and, where available, the
// offending position or identifier. The whole batch fails rather than
// silently skipping records.
func userMessage(err error) (int, string) {
	var ice *fasta.InvalidCharError
	switch {
	case errors.As(err, &ice):
		return http.StatusBadRequest, fmt.Sprintf("invalid character: %q at position %d in %q", ice.Char, ice.Position, ice.Identifier)
	case errors.Is(err, fasta.ErrEmptyInput):
		return http.StatusBadRequest, "empty input: paste or upload at least one sequence"
	case errors.Is(err, fasta.ErrMalformedFasta):
		return http.StatusBadRequest, "malformed FASTA: " + err.Error()
	case errors.Is(err, composition.ErrEmptyResult):
		return http.StatusBadRequest, "nothing to analyze"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func renderPage(w http.ResponseWriter, p Page) {
	if err := templates.ExecuteTemplate(w, "base.html", p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// renderResult renders the results fragment for HX requests and the
// full page otherwise.
func renderResult(w http.ResponseWriter, r *http.Request, run *Run, errMsg string) {
	if r.Header.Get("HX-Request") == "true" || r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		if errMsg != "" {
			fmt.Fprintf(w, `<p class="error">%s</p>`, template.HTMLEscapeString(errMsg))
			return
		}
		if err := templates.ExecuteTemplate(w, "results.html", run); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	renderPage(w, Page{Current: run, Error: errMsg})
}

func indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		renderPage(w, Page{Current: getCurrent()})
	}
}

// analyzeHandler accepts pasted text or an uploaded file, runs the
// parse-analyze pipeline and persists the run.
func analyzeHandler(logger *log.Logger, opts composition.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var raw, label string
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				http.Error(w, "failed to parse upload", http.StatusBadRequest)
				return
			}
			if f, hdr, err := r.FormFile("fasta_file"); err == nil {
				defer f.Close()
				data, err := io.ReadAll(f)
				if err != nil {
					http.Error(w, "failed to read upload", http.StatusBadRequest)
					return
				}
				raw = string(data)
				label = hdr.Filename
			}
		} else {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "failed to parse form", http.StatusBadRequest)
				return
			}
		}
		if raw == "" {
			raw = r.FormValue("sequence_text")
			label = "pasted text"
		}
		if !utf8.ValidString(raw) {
			renderResult(w, r, nil, "decoding error: input is not valid UTF-8 text")
			return
		}

		mode, err := fasta.ParseMode(r.FormValue("mode"))
		if err != nil {
			renderResult(w, r, nil, err.Error())
			return
		}
		parseOpts := fasta.Options{}
		if r.FormValue("strict") == "on" {
			parseOpts.Ambiguity = fasta.AmbiguityReject
		}

		run, err := runAnalysis(logger, raw, label, mode, parseOpts, opts)
		if err != nil {
			status, msg := userMessage(err)
			logger.Warn("analysis rejected", "label", label, "err", err)
			w.WriteHeader(status)
			renderResult(w, r, nil, msg)
			return
		}
		renderResult(w, r, run, "")
	}
}

// runAnalysis parses, aggregates, stores and activates one run.
func runAnalysis(logger *log.Logger, raw, label string, mode fasta.Mode, parseOpts fasta.Options, opts composition.Options) (*Run, error) {
	records, err := fasta.Parse(raw, mode, parseOpts)
	if err != nil {
		return nil, err
	}
	table, err := composition.Aggregate(records, opts)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	run := &Run{
		ID:        newRunID(now),
		Label:     label,
		CreatedAt: now,
		Rows:      table.Rows,
		Summary:   table.Summary,
	}
	if err := appendRun(*run); err != nil {
		logger.Warn("failed to persist run", "id", run.ID, "err", err)
	}
	setCurrent(run)
	logger.Info("analysis complete", "id", run.ID, "label", label, "sequences", len(run.Rows), "mean_gc", run.Summary.MeanGC)
	return run, nil
}

// fetchHandler analyzes sequences fetched from NCBI by accession.
func fetchHandler(logger *log.Logger, opts composition.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "failed to parse form", http.StatusBadRequest)
			return
		}
		var accessions []string
		for _, a := range strings.FieldsFunc(r.FormValue("accessions"), func(c rune) bool {
			return c == ',' || c == ' ' || c == '\n' || c == '\t' || c == '\r'
		}) {
			if a != "" {
				accessions = append(accessions, a)
			}
		}
		if len(accessions) == 0 {
			renderResult(w, r, nil, "empty input: provide at least one accession")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		fetched, err := ncbi.FetchSequences(ctx, accessions)
		if err != nil {
			logger.Error("ncbi fetch failed", "err", err)
			w.WriteHeader(http.StatusBadGateway)
			renderResult(w, r, nil, "failed to fetch sequences from NCBI: "+err.Error())
			return
		}

		var records []fasta.Record
		var missing []string
		for _, acc := range accessions {
			seq, ok := fetched[acc]
			if !ok {
				missing = append(missing, acc)
				continue
			}
			records = append(records, fasta.Record{Identifier: acc, Bases: seq})
		}
		if len(missing) > 0 {
			renderResult(w, r, nil, "no sequence found for accession(s): "+strings.Join(missing, ", "))
			return
		}

		table, err := composition.Aggregate(records, opts)
		if err != nil {
			status, msg := userMessage(err)
			w.WriteHeader(status)
			renderResult(w, r, nil, msg)
			return
		}
		now := time.Now().UTC()
		run := &Run{
			ID:        newRunID(now),
			Label:     "ncbi: " + strings.Join(accessions, ","),
			CreatedAt: now,
			Rows:      table.Rows,
			Summary:   table.Summary,
		}
		if err := appendRun(*run); err != nil {
			logger.Warn("failed to persist run", "id", run.ID, "err", err)
		}
		setCurrent(run)
		renderResult(w, r, run, "")
	}
}

// exportHandler serves the current run in the format named by the path,
// e.g. /export/csv.
func exportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := getCurrent()
		if run == nil {
			http.Error(w, "nothing to export: run an analysis first", http.StatusNotFound)
			return
		}
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "missing format", http.StatusBadRequest)
			return
		}
		format, err := export.ParseFormat(parts[2])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := export.Encode(run.table(), format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gc_content_results.%s", format))
		_, _ = w.Write(data)
	}
}

// chartHandler renders the chart page for the current run.
func chartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := getCurrent()
		if run == nil {
			http.Error(w, "nothing to chart: run an analysis first", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := export.WriteChartHTML(w, run.table()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// runsHandler lists stored runs.
func runsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := loadRuns(runsPath)
		if err != nil {
			http.Error(w, "failed to load run history", http.StatusInternalServerError)
			return
		}
		if err := templates.ExecuteTemplate(w, "runs.html", runs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// runHandler reopens a stored run and makes it the current session.
func runHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 3 || parts[2] == "" {
			http.Error(w, "missing run id", http.StatusBadRequest)
			return
		}
		run, err := findRun(parts[2])
		if err != nil {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		setCurrent(run)
		renderPage(w, Page{Current: run})
	}
}

// apiRunHandler returns JSON for a single stored run.
func apiRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 4 || parts[3] == "" {
			http.Error(w, "missing run id", http.StatusBadRequest)
			return
		}
		run, err := findRun(parts[3])
		if err != nil {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(run)
	}
}

// apiRunsHandler returns the JSON list of stored runs.
func apiRunsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := loadRuns(runsPath)
		if err != nil {
			http.Error(w, "failed to load run history", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(runs)
	}
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	templatesDir := flag.String("templates", "web/templates", "HTML templates directory")
	store := flag.String("runs-store", "", "run history backend: json or sqlite")
	storePath := flag.String("runs-path", "", "run history file path")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	logFile := flag.String("log", "", "path to write logs (optional). If empty, logs go to stderr only")
	flag.Parse()

	cfg, _ := config.LoadConfig(*configFlag)
	if cfg.ListenAddr != "" && *addr == ":8080" {
		*addr = cfg.ListenAddr
	}
	if cfg.TemplatesDir != "" && *templatesDir == "web/templates" {
		*templatesDir = cfg.TemplatesDir
	}
	if *store == "" {
		*store = cfg.RunsStore
	}
	if *storePath == "" {
		*storePath = cfg.RunsPath
	}

	var out io.Writer = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal("failed to open log file", "err", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	logger := log.NewWithOptions(out, log.Options{Prefix: "gc-web"})

	if err := loadTemplates(*templatesDir); err != nil {
		logger.Fatal("failed to load templates", "err", err)
	}
	if err := initRunsStore(*store, *storePath); err != nil {
		logger.Fatal("failed to open runs store", "store", *store, "path", *storePath, "err", err)
	}
	if cfg.NcbiCachePath != "" {
		ncbi.SetCacheFilePath(cfg.NcbiCachePath)
	}
	if cfg.NcbiCacheTTLSecs > 0 {
		ncbi.SetCacheTTLSeconds(cfg.NcbiCacheTTLSecs)
	}

	opts := composition.Options{Precision: cfg.Precision}

	mux := http.NewServeMux()
	fileServer := http.FileServer(http.Dir("web/static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", indexHandler())
	mux.HandleFunc("/analyze", analyzeHandler(logger, opts))
	mux.HandleFunc("/fetch", fetchHandler(logger, opts))
	mux.HandleFunc("/export/", exportHandler())
	mux.HandleFunc("/chart", chartHandler())
	mux.HandleFunc("/runs", runsHandler())
	mux.HandleFunc("/run/", runHandler())
	// API endpoints for SPA-like interactions
	mux.HandleFunc("/api/runs", apiRunsHandler())
	mux.HandleFunc("/api/run/", apiRunHandler())

	handler := loggingMiddleware(logger, mux)

	srv := &http.Server{Addr: *addr, Handler: handler, ReadTimeout: 15 * time.Second, WriteTimeout: 30 * time.Second}
	fmt.Printf("serving GC content analyzer at http://%s/ (runs store=%s)\n", *addr, runsStore)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", "err", err)
	}
}
