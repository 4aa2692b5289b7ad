package ner

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/idextract/internal/entity"
)

type entitiesJSON struct {
	LastName   string `json:"last_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	BirthPlace string `json:"birth_place,omitempty"`
}

var entityKeys = []string{"last_name", "first_name", "birth_place"}

// synonyms maps keys models tend to invent to the expected ones.
var synonyms = map[string]string{
	"surname":        "last_name",
	"family_name":    "last_name",
	"lastname":       "last_name",
	"nom":            "last_name",
	"given_name":     "first_name",
	"given_names":    "first_name",
	"firstname":      "first_name",
	"prenom":         "first_name",
	"place_of_birth": "birth_place",
	"birthplace":     "birth_place",
}

// BuildEntitiesJSONSchema returns the schema model output must satisfy.
func BuildEntitiesJSONSchema() map[string]any {
	props := make(map[string]any, len(entityKeys))
	for _, k := range entityKeys {
		props[k] = map[string]any{"type": "string", "minLength": 1, "maxLength": 120}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

var (
	entitiesSchemaOnce sync.Once
	entitiesSchema     *jsonschema.Schema
	entitiesSchemaErr  error
)

// ValidateEntitiesJSON validates a sanitized model answer.
func ValidateEntitiesJSON(doc []byte) error {
	entitiesSchemaOnce.Do(func() {
		entitiesSchema, entitiesSchemaErr = entity.CompileSchema("entities.json", BuildEntitiesJSONSchema())
	})
	if entitiesSchemaErr != nil {
		return entitiesSchemaErr
	}
	return entity.ValidateJSON(entitiesSchema, doc)
}

// SanitizeEntitiesJSON pulls the JSON object out of a model answer (code fences
// and surrounding prose are ignored), renames known synonyms, and drops
// unknown, empty or non-string values.
func SanitizeEntitiesJSON(content string) ([]byte, []string, error) {
	obj, err := jsonObject(content)
	if err != nil {
		return nil, nil, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	out := make(map[string]any, len(entityKeys))
	for k, v := range m {
		key := strings.ToLower(strings.TrimSpace(k))
		if to, ok := synonyms[key]; ok {
			key = to
		}
		if !knownKey(key) {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		s, ok := v.(string)
		if !ok {
			dropped = append(dropped, k+"(type)")
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
			dropped = append(dropped, k+"(empty)")
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = s
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}

func knownKey(k string) bool {
	for _, e := range entityKeys {
		if e == k {
			return true
		}
	}
	return false
}

func jsonObject(content string) (string, error) {
	s := strings.TrimSpace(content)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("sanitize: no JSON object in model output")
	}
	return s[start : end+1], nil
}
