// Package config defines the canonical, JSON-serializable recipe model for
// the tablekit engine. It is intentionally small, explicit, and dependency-
// light so that recipes can be loaded from disk (or other sources) and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in recipe
//     files under configs/recipes/*.json.
//  3. Minimalism: Decoding is performed by the standard library, with a light
//     Options helper for typed access; only process-level tuning goes through
//     the environment (see Env).
//
// Example (trimmed):
//
//	{
//	  "name":   "covid-rollup",
//	  "source": { "path": "data/deaths.csv", "format": "csv", "contract": "contracts/deaths.json" },
//	  "steps": [
//	    { "op": "where",  "options": { "column": "continent", "not_null": true } },
//	    { "op": "cumsum", "options": { "partition_by": ["location"], "order_by": "date", "value": "new_cases" } }
//	  ],
//	  "sinks": [
//	    { "kind": "export", "file": { "path": "out/rollup.csv" } }
//	  ]
//	}
package config

import "encoding/json"

// Recipe describes a full engine run in JSON. It is the top-level object
// decoded from a recipe file (e.g., configs/recipes/*.json).
type Recipe struct {
	// Name identifies the recipe. It is used for metrics labeling and for
	// telling runs apart in logs, so it must not be empty.
	Name string `json:"name"`

	// Source describes where input data comes from and how to type it.
	Source Source `json:"source"`

	// Steps lists the ordered operations applied to the loaded table. Each
	// step has an op and an options bag; the options shape is defined by the
	// operation (see validate.go for the per-op requirements).
	Steps []Step `json:"steps"`

	// Sinks lists where results go after the last step. Multiple sinks all
	// receive the same final table.
	Sinks []Sink `json:"sinks"`

	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls concurrency and batching. Zero values defer to the
// environment-derived defaults (see Env); explicit recipe values win.
type RuntimeConfig struct {
	// Workers bounds per-partition parallelism in cumulative aggregation and
	// ranking. 0 means sequential.
	Workers int `json:"workers"`

	// BatchSize is the row-batch size for database materialization.
	BatchSize int `json:"batch_size"`

	// ChannelBuffer sizes the row channel between the writer stages.
	ChannelBuffer int `json:"channel_buffer"`
}

// Source identifies the input file and its column contract.
type Source struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`

	// Format selects the loader: "csv" or "xlsx". When empty, the loader is
	// chosen from the file extension.
	Format string `json:"format"`

	// Contract is the path to a column contract file (JSON or YAML). Either
	// this or an inline "contract" object in Options is required; the file
	// wins when both are present.
	Contract string `json:"contract"`

	// Options is a free-form map interpreted by the loader. For CSV, typical
	// keys include:
	//   has_header (bool), comma (string), trim_space (bool), header_map (object)
	// For XLSX: sheet (string), header_map (object). Both accept an inline
	// "contract" object as an alternative to the Contract path.
	Options Options `json:"options"`
}

// Step defines a single operation in the run. The sequence of steps forms the
// chain executed against the loaded table.
type Step struct {
	// Op selects the operation (e.g., "cumsum", "rank", "dedupe", "fill",
	// "split_first", "split_parts", "normalize", "ratio", "select", "where",
	// "drop"). Operations define their own options.
	Op string `json:"op"`

	// Confirm acknowledges a destructive step ("dedupe", "drop") in the
	// recipe itself. Without it the CLI refuses the step unless --force is
	// given.
	Confirm bool `json:"confirm"`

	// Options is a free-form map interpreted by the selected operation.
	Options Options `json:"options"`
}

// Sink selects one destination for the final table.
type Sink struct {
	// Kind selects the sink implementation: "export" (CSV file),
	// "materialize" (database table), or "snapshot" (in-process table store).
	Kind string `json:"kind"`

	// File carries options for the "export" sink kind.
	File SinkFile `json:"file"`

	// DB carries options for the "materialize" sink kind.
	DB DBConfig `json:"db"`

	// Snapshot carries options for the "snapshot" sink kind.
	Snapshot SinkSnapshot `json:"snapshot"`
}

// SinkFile holds configuration for the "export" sink kind.
type SinkFile struct {
	// Path is the output CSV path. Parent directories are created as
	// needed.
	Path string `json:"path"`

	// Append appends to an existing file instead of truncating it. The
	// header row is suppressed when appending.
	Append bool `json:"append"`

	// BOM prefixes the file with a UTF-8 byte-order mark so spreadsheet
	// tools pick up the encoding.
	BOM bool `json:"bom"`

	// DateLayout formats date cells; empty means the contract default
	// layout (2006-01-02).
	DateLayout string `json:"date_layout"`
}

// SinkSnapshot holds configuration for the "snapshot" sink kind.
type SinkSnapshot struct {
	// Name is the snapshot name in the table store.
	Name string `json:"name"`

	// Transient registers a live view instead of a materialized copy.
	Transient bool `json:"transient"`
}

// DBConfig configures the database sink, shared across backends.
type DBConfig struct {
	// Kind selects the storage backend ("postgres", "sqlite", "mssql",
	// "mysql"). The backend must be registered with the storage factory.
	Kind string `json:"kind"`

	// DSN is the backend connection string (e.g., postgresql://... for
	// postgres, a file path or :memory: for sqlite).
	DSN string `json:"dsn"`

	// Table is the destination table name, qualified the way the backend
	// expects (e.g., "public.my_table", "dbo.my_table").
	Table string `json:"table"`

	// Columns optionally restricts and orders the destination columns. When
	// empty, the final table's own column order is used.
	Columns []string `json:"columns"`

	// AutoCreateTable creates the destination table from the final table's
	// schema before writing. Requires a DDL bootstrapper for the backend.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
//
// Options is used for source/step-specific configuration where the shape
// varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
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

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
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

// Float64 returns the float64 value for key or def. Plain ints are widened so
// hand-built Options maps behave like decoded JSON.
func (o Options) Float64(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character loader settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
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

// StringSlice returns a []string for key when the value is an array of
// strings (or an array of interface values containing strings). Returns nil
// when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller (e.g., an inline column contract).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// Has reports whether key is present at all, letting callers distinguish an
// explicit value from an absent one where the zero value is meaningful.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON implements json.Unmarshaler so that a null "options" object
// in JSON decodes to a non-nil, empty Options map. This simplifies call sites
// by removing the need to nil-check Options values. (A field that is absent
// entirely still decodes to nil, as encoding/json never calls the
// unmarshaler for missing keys; the typed getters tolerate a nil receiver.)
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
