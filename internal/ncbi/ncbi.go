package ncbi

// Package ncbi fetches nucleotide sequences by accession from the NCBI
// E-utilities efetch endpoint so users can analyze sequences without
// uploading a file. Responses are cached on disk with a TTL.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
)

// httpClient performs requests; tests may replace it with a mock transport.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// Cache structures
type cachedEntry struct {
	Sequence    string `json:"sequence"`
	RetrievedAt int64  `json:"retrieved_at"`
}

var (
	cacheMu       sync.RWMutex
	cache         map[string]cachedEntry
	cacheLoaded   bool
	cacheFilePath string
	cacheTTLSecs  int64
)

// SetCacheFilePath overrides the on-disk cache location.
func SetCacheFilePath(path string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheFilePath = path
	cacheLoaded = false
	cache = nil
}

// SetCacheTTLSeconds overrides the cache TTL.
func SetCacheTTLSeconds(secs int64) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheTTLSecs = secs
}

// FlushCache writes the in-memory cache to disk.
func FlushCache() {
	saveCache()
}

// cache TTL in seconds (default 7 days)
func cacheTTL() int64 {
	if cacheTTLSecs > 0 {
		return cacheTTLSecs
	}
	if s := os.Getenv("NCBI_CACHE_TTL_SECONDS"); s != "" {
		if v, err := time.ParseDuration(s + "s"); err == nil {
			return int64(v.Seconds())
		}
	}
	return int64(7 * 24 * 3600)
}

func defaultCachePath() string {
	if cacheFilePath != "" {
		return cacheFilePath
	}
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "gc-content-analyzer")
		_ = os.MkdirAll(p, 0o755)
		return filepath.Join(p, "ncbi_cache.json")
	}
	return filepath.Join(os.TempDir(), "gc_content_ncbi_cache.json")
}

func loadCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cacheLoaded {
		return
	}
	path := defaultCachePath()
	cache = make(map[string]cachedEntry)
	data, err := os.ReadFile(path)
	if err != nil {
		cacheLoaded = true
		return
	}
	_ = json.Unmarshal(data, &cache)
	cacheLoaded = true
}

func saveCache() {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	path := defaultCachePath()
	b, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, b, 0o644)
}

func getCached(acc string) (string, bool) {
	loadCache()
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	e, ok := cache[acc]
	if !ok {
		return "", false
	}
	ttl := cacheTTL()
	if ttl > 0 && time.Now().Unix()-e.RetrievedAt > ttl {
		return "", false
	}
	return e.Sequence, true
}

func setCached(acc, seq string) {
	if acc == "" || seq == "" {
		return
	}
	loadCache()
	cacheMu.Lock()
	cache[acc] = cachedEntry{Sequence: seq, RetrievedAt: time.Now().Unix()}
	cacheMu.Unlock()
	saveCache()
}

// FetchSequences fetches the nucleotide sequences for the given
// accessions in one efetch call and returns a map from accession to
// bases. Cached accessions are served from disk; only misses are
// requested. Accessions absent from the response are absent from the map.
func FetchSequences(ctx context.Context, accessions []string) (map[string]string, error) {
	out := make(map[string]string, len(accessions))
	var missing []string
	for _, acc := range accessions {
		if acc == "" {
			continue
		}
		if v, ok := getCached(acc); ok {
			out[acc] = v
			continue
		}
		missing = append(missing, acc)
	}
	if len(missing) == 0 {
		return out, nil
	}

	body, err := efetchFasta(ctx, missing)
	if err != nil {
		return out, err
	}
	if strings.TrimSpace(body) == "" {
		return out, nil
	}

	records, err := fasta.Parse(body, fasta.ModeFasta, fasta.Options{Ambiguity: fasta.AmbiguityCount})
	if err != nil {
		return out, fmt.Errorf("unexpected efetch payload: %w", err)
	}
	for _, rec := range records {
		// efetch headers look like "NM_000797.4 Homo sapiens ..."; the
		// accession is the first token.
		acc := rec.Identifier
		if fields := strings.Fields(rec.Identifier); len(fields) > 0 {
			acc = fields[0]
		}
		out[acc] = rec.Bases
		setCached(acc, rec.Bases)
	}
	return out, nil
}

// efetchFasta performs the HTTP request with up to 3 attempts,
// honoring Retry-After on 429 responses.
func efetchFasta(ctx context.Context, accessions []string) (string, error) {
	base := "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=nuccore&id=%s&rettype=fasta&retmode=text"
	apiKey := os.Getenv("NCBI_API_KEY")
	if apiKey != "" {
		base += "&api_key=" + apiKey
	}
	url := fmt.Sprintf(base, strings.Join(accessions, ","))

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", "gc-content-analyzer/1.0 (https://example)")
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt*300) * time.Millisecond)
			continue
		}
		if resp.StatusCode == 200 {
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		if resp.StatusCode == 429 {
			lastErr = fmt.Errorf("ncbi efetch returned 429")
			wait := time.Duration(attempt*500) * time.Millisecond
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			resp.Body.Close()
			time.Sleep(wait)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return "", fmt.Errorf("ncbi efetch returned status %d: %s", resp.StatusCode, string(body))
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", nil
}
