// Package config provides the recipe model and helpers for tablekit runs.
//
// This file adds a lightweight linter/validator for Recipe values. It
// performs static checks over a decoded Recipe and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"tablekit/internal/schema"
	"tablekit/internal/transform"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Recipe.
//
// Path is a dotted path into the config (e.g. "source.path",
// "steps[1].options.mapping"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRecipe performs static validation / linting of a Recipe.
//
// It does not mutate the recipe. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	r, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.ValidateRecipe(r) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateRecipe(r Recipe) []Issue {
	var issues []Issue

	// Top-level checks.
	if strings.TrimSpace(r.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "name",
			Message:  "name must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateSteps(r.Steps)...)
	issues = append(issues, validateSinks(r.Sinks)...)
	issues = append(issues, validateRuntime(r.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source requires a non-empty path",
		})
	}

	// Format must be a known loader, or empty for extension inference.
	switch s.Format {
	case "", "csv", "xlsx":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.format",
			Message:  fmt.Sprintf("unknown source format %q; ensure a matching loader exists", s.Format),
		})
	}
	if s.Format == "" && s.Path != "" {
		switch strings.ToLower(filepath.Ext(s.Path)) {
		case ".csv", ".xlsx":
		default:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.format",
				Message:  fmt.Sprintf("cannot infer a loader from extension of %q; set source.format", s.Path),
			})
		}
	}

	// A column contract is mandatory: either a file path or an inline object.
	inline := s.Options.Any("contract")
	if strings.TrimSpace(s.Contract) == "" && inline == nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.contract",
			Message:  "a column contract is required (set source.contract to a file path or provide an inline options.contract object)",
		})
	}
	if inline != nil {
		// Try decoding into schema.Contract to catch structural issues early.
		b, err := json.Marshal(inline)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.options.contract",
				Message:  fmt.Sprintf("inline contract is not JSON-marshable: %v", err),
			})
		} else {
			var c schema.Contract
			if err := json.Unmarshal(b, &c); err != nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "source.options.contract",
					Message:  fmt.Sprintf("inline contract is not a valid column contract: %v", err),
				})
			} else if len(c.Fields) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     "source.options.contract",
					Message:  "inline contract has no fields; it will not type anything",
				})
			}
		}
	}

	// Loader-specific sanity checks (kept intentionally light).
	if comma := s.Options.String("comma", ""); len([]rune(comma)) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.options.comma",
			Message:  fmt.Sprintf("comma %q is longer than one character; only the first rune is used", comma),
		})
	}

	return issues
}

// destructiveOps remove rows or columns; they need recipe-level confirmation
// or the CLI --force flag.
var destructiveOps = map[string]string{
	"dedupe": "removes rows",
	"drop":   "removes columns",
}

// validateSteps validates the step chain.
func validateSteps(steps []Step) []Issue {
	var issues []Issue

	if len(steps) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "steps",
			Message:  "no steps configured; the loaded table is passed to sinks unchanged",
		})
		return issues
	}

	knownOps := map[string]struct{}{
		"cumsum":      {},
		"rank":        {},
		"dedupe":      {},
		"fill":        {},
		"split_first": {},
		"split_parts": {},
		"normalize":   {},
		"ratio":       {},
		"select":      {},
		"where":       {},
		"drop":        {},
	}

	for i, st := range steps {
		path := fmt.Sprintf("steps[%d].op", i)
		if strings.TrimSpace(st.Op) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "step op must not be empty",
			})
			continue
		}
		if _, ok := knownOps[st.Op]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown step op %q; ensure a matching operation exists", st.Op),
			})
			continue
		}

		if what, ok := destructiveOps[st.Op]; ok && !st.Confirm {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("steps[%d].confirm", i),
				Message:  fmt.Sprintf("%s %s; set confirm or run with --force", st.Op, what),
			})
		}

		issues = append(issues, validateStepOptions(i, st)...)
	}

	return issues
}

// validateStepOptions checks the per-op required options. The option shapes
// here must stay in sync with the step builders in internal/pipeline.
func validateStepOptions(i int, st Step) []Issue {
	var issues []Issue
	o := st.Options

	requireString := func(key string) {
		if strings.TrimSpace(o.String(key, "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.%s", i, key),
				Message:  fmt.Sprintf("%s op requires a non-empty %q option", st.Op, key),
			})
		}
	}
	requireStrings := func(key string) []string {
		ss := o.StringSlice(key)
		if len(ss) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.%s", i, key),
				Message:  fmt.Sprintf("%s op requires a non-empty %q list", st.Op, key),
			})
		}
		return ss
	}

	switch st.Op {
	case "cumsum":
		requireStrings("partition_by")
		requireString("order_by")
		requireString("value")

	case "rank", "dedupe":
		requireStrings("identity_by")

	case "fill":
		requireString("join_key")
		requireString("target")

	case "split_first":
		requireString("source")
		requireString("delimiter")
		if into := o.StringSlice("into"); len(into) != 2 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.into", i),
				Message:  fmt.Sprintf("split_first requires exactly two %q column names, got %d", "into", len(into)),
			})
		}

	case "split_parts":
		requireString("source")
		requireString("delimiter")
		if into := o.StringSlice("into"); len(into) < 2 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.into", i),
				Message:  fmt.Sprintf("split_parts requires at least two %q column names, got %d", "into", len(into)),
			})
		}

	case "normalize":
		requireString("column")
		if o.Any("mapping") == nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.mapping", i),
				Message:  "normalize op requires a mapping object",
			})
			break
		}
		m := o.StringMap("mapping")
		if len(m) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.mapping", i),
				Message:  "normalize mapping must map at least one string to a string",
			})
		} else if err := transform.CheckMapping(m); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options.mapping", i),
				Message:  err.Error(),
			})
		}

	case "ratio":
		requireString("numerator")
		requireString("denominator")
		requireString("as")
		if o.Float64("scale", 0) < 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("steps[%d].options.scale", i),
				Message:  "negative scale produces negative percentages; double-check the recipe",
			})
		}

	case "select", "drop":
		requireStrings("columns")

	case "where":
		requireString("column")
		if o.Any("equals") == nil && !o.Bool("not_null", false) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("steps[%d].options", i),
				Message:  "where op requires an equals value or not_null: true",
			})
		}
	}

	return issues
}

// validateSinks validates the sink list.
func validateSinks(sinks []Sink) []Issue {
	var issues []Issue

	if len(sinks) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sinks",
			Message:  "no sinks configured; results are discarded when the run ends",
		})
		return issues
	}

	known := map[string]struct{}{
		"export":      {},
		"materialize": {},
		"snapshot":    {},
	}
	knownBackends := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}

	for i, s := range sinks {
		path := fmt.Sprintf("sinks[%d].kind", i)
		if strings.TrimSpace(s.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "sink kind must not be empty",
			})
			continue
		}
		if _, ok := known[s.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown sink kind %q; ensure a matching implementation exists", s.Kind),
			})
			continue
		}

		switch s.Kind {
		case "export":
			if strings.TrimSpace(s.File.Path) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("sinks[%d].file.path", i),
					Message:  "export sink requires a non-empty file path",
				})
			}

		case "materialize":
			db := s.DB
			if strings.TrimSpace(db.Kind) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("sinks[%d].db.kind", i),
					Message:  "materialize sink requires a storage backend kind",
				})
			} else if _, ok := knownBackends[db.Kind]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("sinks[%d].db.kind", i),
					Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", db.Kind),
				})
			}
			if strings.TrimSpace(db.DSN) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("sinks[%d].db.dsn", i),
					Message:  "materialize sink requires a DSN",
				})
			}
			if strings.TrimSpace(db.Table) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("sinks[%d].db.table", i),
					Message:  "materialize sink requires a destination table",
				})
			}
			if db.AutoCreateTable && db.Kind == "mysql" {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("sinks[%d].db.auto_create_table", i),
					Message:  "no DDL bootstrapper is registered for mysql; create the table up front or the run will fail",
				})
			}

		case "snapshot":
			if strings.TrimSpace(s.Snapshot.Name) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("sinks[%d].snapshot.name", i),
					Message:  "snapshot sink requires a non-empty name",
				})
			}
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig. Zero values are fine (they defer
// to the environment defaults); negatives are misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}
