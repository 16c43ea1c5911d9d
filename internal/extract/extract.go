// Package extract pulls a usable translation out of helper payloads whose
// shape is not fixed. Both functions are pure and tolerate any JSON input.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"
)

// probe is one entry of an ordered lookup table: the field to read and how
// its value turns into candidates.
type probe struct {
	field   string
	collect func(value gjson.Result) ([]gjson.Result, bool)
}

// arrayOnly accepts the field only when it holds an array.
func arrayOnly(value gjson.Result) ([]gjson.Result, bool) {
	if !value.IsArray() {
		return nil, false
	}

	return value.Array(), true
}

// arrayOrNested also accepts an object and collects its nested
// translation arrays, e.g. {"examples": {"translation": [...]}}.
func arrayOrNested(value gjson.Result) ([]gjson.Result, bool) {
	switch {
	case value.IsArray():
		return value.Array(), true
	case value.IsObject():
		var items []gjson.Result
		for _, nested := range []string{"translation", "translations"} {
			if inner := value.Get(nested); inner.IsArray() {
				items = append(items, inner.Array()...)
			}
		}

		return items, true
	default:
		return nil, false
	}
}

// Direct translation responses: the first usable array head wins.
var translationProbes = []probe{
	{"translation", arrayOnly},
	{"translations", arrayOnly},
	{"result", arrayOnly},
	{"results", arrayOnly},
}

var translationItemFields = []string{"translation", "text", "value"}

// Context responses: every matching field contributes candidates.
var contextProbes = []probe{
	{"translation", arrayOrNested},
	{"translations", arrayOrNested},
	{"results", arrayOrNested},
	{"examples", arrayOrNested},
	{"contextResults", arrayOrNested},
}

var contextItemFields = []string{"translation", "text", "value", "to"}

// FromTranslation returns the top candidate of a direct translation payload.
//
// Fields are probed in priority order and only the first element of each
// non-empty array is looked at: a string is returned as is, an object is
// probed for a string sub-field. An empty array or an unusable first element
// moves on to the next field.
func FromTranslation(payload []byte) (string, bool) {
	subject, ok := unwrap(payload)
	if !ok {
		return "", false
	}

	for _, p := range translationProbes {
		items, matched := p.collect(subject.Get(p.field))
		if !matched || len(items) == 0 {
			continue
		}

		first := items[0]

		switch {
		case first.Type == gjson.String:
			return first.Str, true
		case first.IsObject():
			for _, field := range translationItemFields {
				if v := first.Get(field); v.Type == gjson.String {
					return v.Str, true
				}
			}
		}
	}

	return "", false
}

// FromContext returns the first non-blank candidate of a context payload.
//
// Unlike FromTranslation, candidates are accumulated across all probed
// fields in order before the first usable string is picked. Results are
// trimmed.
func FromContext(payload []byte) (string, bool) {
	subject, ok := unwrap(payload)
	if !ok {
		return "", false
	}

	var candidates []gjson.Result
	for _, p := range contextProbes {
		if items, matched := p.collect(subject.Get(p.field)); matched {
			candidates = append(candidates, items...)
		}
	}

	for _, item := range candidates {
		switch {
		case item.Type == gjson.String:
			if s := strings.TrimSpace(item.Str); s != "" {
				return s, true
			}
		case item.IsObject():
			for _, field := range contextItemFields {
				v := item.Get(field)
				if v.Type != gjson.String {
					continue
				}
				if s := strings.TrimSpace(v.Str); s != "" {
					return s, true
				}
			}
		}
	}

	return "", false
}

// unwrap returns the object to probe: the value of a top-level "result" key
// when present, otherwise the document itself.
func unwrap(payload []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, false
	}

	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}

	subject := doc
	if inner := doc.Get("result"); inner.Exists() {
		subject = inner
	}

	return subject, subject.IsObject()
}
