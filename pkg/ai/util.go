package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

var (
	errEmptyResponse = errors.New("empty response from model")
	codeFence        = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*\\s*(.*?)```")
)

func stripDuplicateLeadingBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}

// StripCodeFence returns the content of the first fenced code block in s,
// or s itself when there is none.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// unterminated fence
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
	}
	return strings.TrimSpace(s)
}

// GenerateSchema creates a JSON Schema from the given Go type.
// It uses reflection to inspect the type structure and generates
// a schema suitable for use with AI structured output.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// decode unmarshals data into out and resets out on failure so a partial
// decode never leaks into the next attempt.
func decode(data string, out any) bool {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		rv := reflect.ValueOf(out).Elem()
		rv.Set(reflect.Zero(rv.Type()))
		return false
	}
	return true
}

// ParseStructured decodes model output into out, which must be a non-nil
// pointer. Strategies are tried in order: plain JSON, double-encoded JSON,
// the content of a fenced code block, then JSON repair.
//
// Example:
//
//	var result MyStruct
//	// All of these inputs decode:
//	ParseStructured(`{"name": "test"}`, &result)               // parsed
//	ParseStructured(`"{\"name\": \"test\"}"`, &result)         // parsed
//	ParseStructured("```json\n{\"name\": \"test\"}\n```", &result) // parsed
//	ParseStructured(`{name: "test"}`, &result)                 // repaired
func ParseStructured(raw string, out any) ParseResult {
	res := ParseResult{Outcome: ParseFailed, Raw: raw}

	rv := reflect.ValueOf(out)
	if out == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		res.Err = errors.New("out must be a non-nil pointer")
		return res
	}

	input := strings.TrimSpace(raw)
	if input == "" {
		res.Err = errEmptyResponse
		return res
	}

	if decode(input, out) {
		res.Outcome = ParseParsed
		return res
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if decode(asString, out) {
			res.Outcome = ParseParsed
			return res
		}
		input = asString
	}

	if fenced := StripCodeFence(input); fenced != input {
		if decode(fenced, out) {
			res.Outcome = ParseParsed
			return res
		}
		input = fenced
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		res.Err = fmt.Errorf("json repair failed: %w (input: %s)", err, input)
		return res
	}

	if decode(repaired, out) {
		res.Outcome = ParseRepaired
		return res
	}

	res.Err = fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
	return res
}

// UnmarshalFlexible is ParseStructured for callers that only need an error.
func UnmarshalFlexible(input string, out any) error {
	return ParseStructured(input, out).Err
}
