package patterns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// LoadReport lists the external pattern files merged into a registry and the
// ones skipped with their reason.
type LoadReport struct {
	Loaded  []string
	Skipped map[string]error
}

// File is the on-disk format of an external pattern file:
//
//	{
//	  "patterns":   {"fr": {"cni": "\\d{12}"}, "generic": {"last_name": ["...", "..."]}},
//	  "validators": {"fr": {"cni": "^\\d{12}$"}}
//	}
//
// A pattern is a single expression or an ordered list of candidates.
type File struct {
	Patterns   map[string]map[string]json.RawMessage `json:"patterns"`
	Validators map[string]map[string]string          `json:"validators,omitempty"`
}

// BuildFileJSONSchema returns the JSON Schema external pattern files must satisfy.
func BuildFileJSONSchema() map[string]any {
	expr := map[string]any{"type": "string", "minLength": 1}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"patterns"},
		"properties": map[string]any{
			"patterns": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"additionalProperties": map[string]any{
						"oneOf": []any{
							expr,
							map[string]any{"type": "array", "minItems": 1, "items": expr},
						},
					},
				},
			},
			"validators": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type":                 "object",
					"additionalProperties": expr,
				},
			},
		},
	}
}

var (
	fileSchemaOnce sync.Once
	fileSchema     *jsonschema.Schema
	fileSchemaErr  error
)

func compiledFileSchema() (*jsonschema.Schema, error) {
	fileSchemaOnce.Do(func() {
		b, err := json.Marshal(BuildFileJSONSchema())
		if err != nil {
			fileSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("patterns.json", bytes.NewReader(b)); err != nil {
			fileSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		fileSchema, fileSchemaErr = compiler.Compile("patterns.json")
	})
	return fileSchema, fileSchemaErr
}

// mergeDir applies every *.json file of dir in lexical order. A later file wins
// over an earlier one for the same (jurisdiction, field).
func (r *Registry) mergeDir(dir string, logger *slog.Logger) LoadReport {
	report := LoadReport{Skipped: map[string]error{}}

	if _, err := os.Stat(dir); err != nil {
		logger.Warn("pattern dir unavailable; using built-in rules", "dir", dir, "error", err)
		return report
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		logger.Warn("pattern dir unreadable", "dir", dir, "error", err)
		return report
	}
	sort.Strings(paths)

	for _, path := range paths {
		rules, err := parseFile(path)
		if err != nil {
			report.Skipped[path] = err
			logger.Warn("skipping malformed pattern file", "path", path, "error", err)
			continue
		}
		r.apply(rules)
		report.Loaded = append(report.Loaded, path)
		logger.Info("pattern file merged", "path", path, "rules", len(rules))
	}
	return report
}

type parsedRule struct {
	jurisdiction Jurisdiction
	rule         *Rule
}

// ValidateFile checks one external pattern file without merging it and returns
// the number of rules it defines.
func ValidateFile(path string) (int, error) {
	rules, err := parseFile(path)
	return len(rules), err
}

// parseFile reads, validates and compiles one external pattern file. It fails
// as a whole: a file with one bad entry contributes nothing.
func parseFile(path string) ([]parsedRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	schema, err := compiledFileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var out []parsedRule
	for jName, fields := range f.Patterns {
		j := Jurisdiction(strings.ToLower(jName))
		if !knownJurisdiction(j) {
			return nil, fmt.Errorf("unknown jurisdiction %q", jName)
		}
		for fName, rawExpr := range fields {
			field := Field(strings.ToLower(fName))
			if !knownField(j, field) {
				return nil, fmt.Errorf("unknown field %q for jurisdiction %q", fName, jName)
			}
			candidates, err := decodeCandidates(rawExpr)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", jName, fName, err)
			}
			rule, err := NewRule(field, f.Validators[jName][fName], candidates...)
			if err != nil {
				return nil, err
			}
			rule.source = path
			out = append(out, parsedRule{jurisdiction: j, rule: rule})
		}
	}
	for jName, fields := range f.Validators {
		for fName := range fields {
			if _, ok := f.Patterns[jName][fName]; !ok {
				return nil, fmt.Errorf("validator %s.%s has no pattern", jName, fName)
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].jurisdiction != out[b].jurisdiction {
			return out[a].jurisdiction < out[b].jurisdiction
		}
		return out[a].rule.field < out[b].rule.field
	})
	return out, nil
}

func decodeCandidates(raw json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("pattern must be a string or a list of strings")
	}
	return many, nil
}

// apply runs during construction only, before the registry is shared.
func (r *Registry) apply(rules []parsedRule) {
	for _, pr := range rules {
		fields, ok := r.sets[pr.jurisdiction]
		if !ok {
			fields = make(map[Field]*Rule)
			r.sets[pr.jurisdiction] = fields
		}
		fields[pr.rule.field] = pr.rule
	}
}
