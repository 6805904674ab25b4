// Package config defines the JSON-serializable configuration model for a
// batch run. It is intentionally small and explicit: decoding is done by the
// standard library, with a light Options helper for the parser's free-form
// settings.
//
// Example (trimmed):
//
//	{
//	  "job":    "daily-transactions",
//	  "source": { "kind": "file", "file": { "path": "batch.csv" } },
//	  "parser": { "kind": "csv", "options": { "has_header": true, "trim_space": true } },
//	  "archive": { "kind": "sqlite", "db": { "dsn": "runs.db", "table_prefix": "txn" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the top-level object decoded from a run configuration file.
type Config struct {
	// Job names the run in logs, metrics labels and archive rows.
	Job string `json:"job"`

	// Source describes where the batch comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become records.
	Parser Parser `json:"parser"`

	// Runtime controls concurrency.
	Runtime RuntimeConfig `json:"runtime"`

	// Archive optionally persists run output to a database. An empty kind
	// disables archiving.
	Archive Archive `json:"archive"`

	// Metrics selects the metrics backend. An empty backend means none.
	Metrics Metrics `json:"metrics"`

	// Output configures where the result files are written.
	Output Output `json:"output"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// ValidateWorkers bounds row-validation parallelism. Values below 1
	// mean sequential.
	ValidateWorkers int `json:"validate_workers"`
}

// Source identifies the batch source. Kinds: "file", "http".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string `json:"url"`
	TimeoutSeconds     int    `json:"timeout_seconds"`
	MaxRetries         int    `json:"max_retries"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
}

// Parser selects how to parse the raw source. Current kind: "csv".
type Parser struct {
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys: has_header (bool), comma (string),
	// trim_space (bool), expected_fields (int), header_map (object).
	Options Options `json:"options"`
}

// Archive selects the database backend used to persist run output.
// Kinds: "sqlite", "postgres", "mysql", "mssql".
type Archive struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the archive sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// TablePrefix prefixes the three archive tables, e.g. prefix "txn"
	// yields txn_transactions, txn_rejects and txn_runs.
	TablePrefix string `json:"table_prefix"`
}

// Metrics selects a metrics backend. Backends: "pushgateway", "datadog",
// "" or "none" for no emission.
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DogstatsdAddr  string `json:"dogstatsd_addr"`
}

// Output configures result file placement.
type Output struct {
	// Dir receives valid.csv, invalid.csv and stats.json. Empty means the
	// current directory.
	Dir string `json:"dir"`
}

// Load reads and decodes a configuration file. Unknown fields are rejected
// so typos surface at load time instead of silently using defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default
// when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a
// string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this accepts float64 and casts.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. Useful for
// single-character settings such as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty Options map, removing nil checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
