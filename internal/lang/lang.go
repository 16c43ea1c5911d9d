// Package lang knows the language names the Reverso helper accepts and how
// to display them.
package lang

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	// DefaultSource is the language words are translated from
	DefaultSource = "romanian"
	// DefaultTarget is the language words are translated into
	DefaultTarget = "german"
)

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrSameLanguage    = errors.New("source and target language must differ")
)

// registry maps helper language names to BCP 47 tags.
var registry = map[string]language.Tag{
	"arabic":     language.Arabic,
	"chinese":    language.Chinese,
	"dutch":      language.Dutch,
	"english":    language.English,
	"french":     language.French,
	"german":     language.German,
	"hebrew":     language.Hebrew,
	"italian":    language.Italian,
	"japanese":   language.Japanese,
	"korean":     language.Korean,
	"polish":     language.Polish,
	"portuguese": language.Portuguese,
	"romanian":   language.Romanian,
	"russian":    language.Russian,
	"spanish":    language.Spanish,
	"swedish":    language.Swedish,
	"turkish":    language.Turkish,
	"ukrainian":  language.Ukrainian,
}

// Normalize lower-cases and trims a language name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Known reports whether the helper understands the language name.
func Known(name string) bool {
	_, ok := registry[Normalize(name)]
	return ok
}

// Names returns all known language names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Code returns the upper-case ISO 639 code, e.g. "RO" for "romanian".
// Unknown names yield their upper-cased input.
func Code(name string) string {
	tag, ok := registry[Normalize(name)]
	if !ok {
		return strings.ToUpper(Normalize(name))
	}

	base, _ := tag.Base()

	return strings.ToUpper(base.String())
}

// DisplayName returns the English name of the language, e.g. "German".
func DisplayName(name string) string {
	tag, ok := registry[Normalize(name)]
	if !ok {
		return name
	}

	if n := display.English.Languages().Name(tag); n != "" {
		return n
	}

	return name
}

// Pair is a translation direction
type Pair struct {
	Source string
	Target string
}

// DefaultPair returns the Romanian to German pair
func DefaultPair() Pair {
	return Pair{Source: DefaultSource, Target: DefaultTarget}
}

// Normalized returns the pair with both names normalized.
func (p Pair) Normalized() Pair {
	return Pair{Source: Normalize(p.Source), Target: Normalize(p.Target)}
}

// Validate checks that both languages are known and distinct.
func (p Pair) Validate() error {
	n := p.Normalized()

	for _, name := range []string{n.Source, n.Target} {
		if !Known(name) {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
		}
	}

	if n.Source == n.Target {
		return fmt.Errorf("%w: %q", ErrSameLanguage, n.Source)
	}

	return nil
}

// Label returns a short direction label such as "RO→DE".
func (p Pair) Label() string {
	return Code(p.Source) + "→" + Code(p.Target)
}

// Slug returns a lower-case identifier such as "ro_de".
func (p Pair) Slug(sep string) string {
	return strings.ToLower(Code(p.Source)) + sep + strings.ToLower(Code(p.Target))
}
