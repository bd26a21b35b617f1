// Package extract pulls JSON objects out of model-generated text.
// Generation output is not guaranteed to be pure JSON: models routinely
// prepend prose ("Sure! Here is the data: ...") or append sign-offs, so
// callers cannot hand the raw response to encoding/json directly.
package extract

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject is returned when the input contains no brace-delimited span.
var ErrNoObject = errors.New("extract: no JSON object found")

// Object unmarshals the substring spanning the first '{' through the
// last '}' of s into dst.
//
// This is a deliberately lenient, best-effort parser. The span heuristic
// tolerates surrounding prose at the cost of failing when stray braces
// appear before or after the real object (e.g. a `{` inside leading
// prose). That failure mode is accepted; callers must treat any error as
// "no structured output" and fall back to their zero value.
func Object(s string, dst interface{}) error {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ErrNoObject
	}
	end := strings.LastIndexByte(s, '}')
	if end == -1 || end < start {
		return ErrNoObject
	}
	return json.Unmarshal([]byte(s[start:end+1]), dst)
}
