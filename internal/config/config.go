package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	InputFasta       string `json:"input_fasta"`
	OutputJSON       string `json:"output_json"`
	OutputCSV        string `json:"output_csv"`
	OutputXLSX       string `json:"output_xlsx"`
	ParseMode        string `json:"parse_mode"`
	AmbiguityPolicy  string `json:"ambiguity_policy"`
	Precision        int    `json:"precision"`
	LogFile          string `json:"log_file"`
	LogLevel         string `json:"log_level"`
	ListenAddr       string `json:"listen_addr"`
	TemplatesDir     string `json:"templates_dir"`
	RunsStore        string `json:"runs_store"`
	RunsPath         string `json:"runs_path"`
	NcbiCachePath    string `json:"ncbi_cache_path"`
	NcbiApiKey       string `json:"ncbi_api_key"`
	NcbiCacheTTLSecs int64  `json:"ncbi_cache_ttl_seconds"`
	Concurrency      int    `json:"concurrency"`
	NcbiQPS          int    `json:"ncbi_qps"`
	NcbiBatchSize    int    `json:"ncbi_batch_size"`
}

// LoadConfig loads a JSON config from the given path. If path is empty, looks for ./config.json.
// A missing file is not fatal: defaults are returned. Precision defaults
// to -1, meaning "use the analyzer default".
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	f, err := os.Open(path)
	if err != nil {
		// not fatal: return defaults
		return &Config{Precision: -1}, nil
	}
	defer f.Close()
	c := Config{Precision: -1}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
