package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/config"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/export"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/ncbi"

	"github.com/charmbracelet/log"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// Entry is one analyzed sequence as stored in the results database
// consumed by the TUI and web front ends.
type Entry struct {
	Identifier     string  `json:"identifier"`
	Bases          string  `json:"bases"`
	Length         int     `json:"length"`
	CountG         int     `json:"count_g"`
	CountC         int     `json:"count_c"`
	CountA         int     `json:"count_a"`
	CountT         int     `json:"count_t"`
	CountAmbiguous int     `json:"count_ambiguous"`
	GCPercent      float64 `json:"gc_percent"`
	ATPercent      float64 `json:"at_percent"`
}

// Database is the JSON document written by the batch pipeline.
type Database struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Sources     []string            `json:"sources"`
	Entries     []Entry             `json:"entries"`
	Summary     composition.Summary `json:"summary"`
}

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	total := n
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return total, err
		}
	}
	return total, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// fileResult carries one input file's parsed records back from the pool.
type fileResult struct {
	index   int
	path    string
	records []fasta.Record
	err     error
}

func main() {
	// CLI flags
	inputFlag := flag.String("in", "", "input FASTA/plain file path(s), comma separated")
	outputFlag := flag.String("out", "results.json", "output JSON database path")
	csvFlag := flag.String("csv", "", "optional: write results CSV to this path")
	xlsxFlag := flag.String("xlsx", "", "optional: write results XLSX to this path")
	chartFlag := flag.String("chart", "", "optional: write chart HTML page to this path")
	modeFlag := flag.String("mode", "auto", "parse mode: auto, fasta or plain")
	strictFlag := flag.Bool("strict", false, "reject IUPAC ambiguity codes instead of counting them")
	precisionFlag := flag.Int("precision", -1, "decimal places for percentages (default 2)")
	accessionsFlag := flag.String("accessions", "", "optional: NCBI accessions to fetch and analyze, comma separated")
	configFlag := flag.String("config", "", "path to config.json (optional)")
	dryRun := flag.Bool("dry-run", false, "perform a dry run without writing outputs or contacting NCBI")
	verbose := flag.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("gc-content-analyzer", version)
		return
	}

	// load config (optional file)
	cfg, _ := config.LoadConfig(*configFlag)

	// merge CLI flags into config (flags override config when provided)
	if *inputFlag != "" {
		cfg.InputFasta = *inputFlag
	}
	if *outputFlag != "" {
		cfg.OutputJSON = *outputFlag
	}
	if *csvFlag != "" {
		cfg.OutputCSV = *csvFlag
	}
	if *xlsxFlag != "" {
		cfg.OutputXLSX = *xlsxFlag
	}
	if *modeFlag != "auto" {
		cfg.ParseMode = *modeFlag
	}
	if *strictFlag {
		cfg.AmbiguityPolicy = "strict"
	}
	if *precisionFlag >= 0 {
		cfg.Precision = *precisionFlag
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	var logFileHandle *os.File
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			logFileHandle = f
			defer func() { _ = logFileHandle.Close() }()
		}
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil {
		if fi.Mode()&os.ModeCharDevice != 0 {
			_ = os.Setenv("FORCE_COLOR", "1")
		}
	}
	// create logger backed by the timestamping writer and expose Fd so charm.log can detect TTY
	tw := &timestampWriter{w: loggerOut}
	termW := &terminalWriter{w: tw, fd: os.Stderr.Fd()}
	logger := log.New(termW)

	// apply log level from flags/config (flags override config)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			logger.SetLevel(log.DebugLevel)
		case "info", "":
			logger.SetLevel(log.InfoLevel)
		case "warn", "warning":
			logger.SetLevel(log.WarnLevel)
		case "error":
			logger.SetLevel(log.ErrorLevel)
		default:
			logger.SetLevel(log.InfoLevel)
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}

	logger.Debug("loaded config", "input_fasta", cfg.InputFasta, "output_json", cfg.OutputJSON, "parse_mode", cfg.ParseMode, "ambiguity_policy", cfg.AmbiguityPolicy, "precision", cfg.Precision)
	logger.Info("starting gc-content-analyzer", "input", cfg.InputFasta, "output", cfg.OutputJSON, "ncbi_cache_path", cfg.NcbiCachePath, "ncbi_cache_ttl_secs", cfg.NcbiCacheTTLSecs)

	mode, err := fasta.ParseMode(cfg.ParseMode)
	if err != nil {
		logger.Fatal("invalid parse mode", "err", err)
	}
	policy, err := fasta.ParseAmbiguityPolicy(cfg.AmbiguityPolicy)
	if err != nil {
		logger.Fatal("invalid ambiguity policy", "err", err)
	}
	parseOpts := fasta.Options{Ambiguity: policy}
	analyzeOpts := composition.Options{Precision: cfg.Precision}

	// apply ncbi config
	if cfg.NcbiCachePath != "" {
		ncbi.SetCacheFilePath(cfg.NcbiCachePath)
		logger.Info("ncbi cache path set from config", "path", cfg.NcbiCachePath)
		defer ncbi.FlushCache()
	}
	if cfg.NcbiApiKey != "" {
		os.Setenv("NCBI_API_KEY", cfg.NcbiApiKey)
		logger.Info("ncbi api key set from config.json (value not logged)")
	}
	if cfg.NcbiCacheTTLSecs > 0 {
		ncbi.SetCacheTTLSeconds(cfg.NcbiCacheTTLSecs)
	}

	var inputs []string
	for _, p := range strings.Split(cfg.InputFasta, ",") {
		if p = strings.TrimSpace(p); p != "" {
			inputs = append(inputs, p)
		}
	}
	var accessions []string
	for _, a := range strings.Split(*accessionsFlag, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accessions = append(accessions, a)
		}
	}
	if len(inputs) == 0 && len(accessions) == 0 {
		logger.Fatal("nothing to analyze: provide -in and/or -accessions")
	}

	// parse input files with a bounded worker pool; each file's
	// parse pipeline is independent, results are reassembled in input order
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > len(inputs) && len(inputs) > 0 {
		concurrency = len(inputs)
	}

	results := make([]fileResult, len(inputs))
	if len(inputs) > 0 {
		tasks := make(chan int)
		var wg sync.WaitGroup
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range tasks {
					path := inputs[idx]
					data, err := os.ReadFile(path)
					if err != nil {
						results[idx] = fileResult{index: idx, path: path, err: err}
						continue
					}
					recs, err := fasta.Parse(string(data), mode, parseOpts)
					results[idx] = fileResult{index: idx, path: path, records: recs, err: err}
				}
			}()
		}
		for idx := range inputs {
			tasks <- idx
		}
		close(tasks)
		wg.Wait()
	}

	var records []fasta.Record
	for _, res := range results {
		if res.err != nil {
			logger.Fatal("failed to read input", "path", res.path, "err", res.err)
		}
		logger.Info("parsed input", "path", res.path, "records", len(res.records))
		records = append(records, res.records...)
	}

	// fetch accession sequences in batches, rate limited
	if len(accessions) > 0 {
		if *dryRun {
			logger.Info("dry-run: skipping ncbi fetch", "accessions", len(accessions))
		} else {
			qps := cfg.NcbiQPS
			if qps <= 0 {
				qps = 3
			}
			batchSize := cfg.NcbiBatchSize
			if batchSize <= 0 {
				batchSize = 10
			}
			logger.Info("starting ncbi lookup", "accessions", len(accessions), "qps", qps, "batch_size", batchSize)

			ticker := time.NewTicker(time.Second / time.Duration(qps))
			defer ticker.Stop()

			fetched := map[string]string{}
			for i := 0; i < len(accessions); i += batchSize {
				end := i + batchSize
				if end > len(accessions) {
					end = len(accessions)
				}
				<-ticker.C // rate limit per batch
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				m, err := ncbi.FetchSequences(ctx, accessions[i:end])
				cancel()
				if err != nil {
					logger.Warn("ncbi batch fetch error", "err", err)
				}
				for k, v := range m {
					fetched[k] = v
				}
			}

			for _, acc := range accessions {
				seq, ok := fetched[acc]
				if !ok {
					logger.Warn("no sequence returned for accession", "accession", acc)
					continue
				}
				records = append(records, fasta.Record{Identifier: acc, Bases: seq})
			}
			logger.Info("ncbi lookup finished", "resolved", len(fetched))
		}
	}

	table, err := composition.Aggregate(records, analyzeOpts)
	if err != nil {
		logger.Fatal("analysis failed", "err", err)
	}
	for _, row := range table.Rows {
		logger.Info("analyzed sequence", "identifier", row.Identifier, "length", row.Length, "gc_percent", row.GCPercent)
	}
	logger.Info("summary", "sequences", len(table.Rows), "mean_gc", table.Summary.MeanGC, "min_gc", table.Summary.MinGC, "max_gc", table.Summary.MaxGC)

	db := Database{
		GeneratedAt: time.Now().UTC(),
		Sources:     append(inputs, accessions...),
		Summary:     table.Summary,
	}
	for i, row := range table.Rows {
		db.Entries = append(db.Entries, Entry{
			Identifier:     row.Identifier,
			Bases:          records[i].Bases,
			Length:         row.Length,
			CountG:         row.CountG,
			CountC:         row.CountC,
			CountA:         row.CountA,
			CountT:         row.CountT,
			CountAmbiguous: row.CountAmbiguous,
			GCPercent:      row.GCPercent,
			ATPercent:      row.ATPercent,
		})
	}

	if *dryRun {
		logger.Info("dry-run: would write outputs", "json", cfg.OutputJSON, "csv", cfg.OutputCSV, "xlsx", cfg.OutputXLSX, "chart", *chartFlag, "entries", len(db.Entries))
		return
	}

	jsonData, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		logger.Fatal("json marshal failed", "err", err)
	}
	outPath := cfg.OutputJSON
	if outPath == "" {
		outPath = "results.json"
	}
	if err := os.WriteFile(outPath, jsonData, 0o644); err != nil {
		logger.Error("failed to write output JSON", "path", outPath, "err", err)
	} else {
		logger.Info("wrote output JSON", "path", outPath, "entries", len(db.Entries))
	}

	if cfg.OutputCSV != "" {
		data, err := export.Encode(table, export.FormatCSV)
		if err != nil {
			logger.Error("csv encode failed", "err", err)
		} else if err := os.WriteFile(cfg.OutputCSV, data, 0o644); err != nil {
			logger.Error("failed to write CSV", "path", cfg.OutputCSV, "err", err)
		} else {
			logger.Info("wrote CSV", "path", cfg.OutputCSV)
		}
	}
	if cfg.OutputXLSX != "" {
		data, err := export.Encode(table, export.FormatXLSX)
		if err != nil {
			logger.Error("xlsx encode failed", "err", err)
		} else if err := os.WriteFile(cfg.OutputXLSX, data, 0o644); err != nil {
			logger.Error("failed to write XLSX", "path", cfg.OutputXLSX, "err", err)
		} else {
			logger.Info("wrote XLSX", "path", cfg.OutputXLSX)
		}
	}
	if *chartFlag != "" {
		f, err := os.Create(*chartFlag)
		if err != nil {
			logger.Error("failed to create chart file", "path", *chartFlag, "err", err)
		} else {
			if err := export.WriteChartHTML(f, table); err != nil {
				logger.Error("chart render failed", "err", err)
			} else {
				logger.Info("wrote chart page", "path", *chartFlag)
			}
			f.Close()
		}
	}
}
