// Package batch translates a file of words with bounded concurrency.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/rode/internal/translation"
)

// DefaultConcurrency is how many words are translated at once
const DefaultConcurrency = 2

// Entry is one line of a batch file
type Entry struct {
	Word     string
	Expected string // Optional, from "word = expected"
	Line     int
}

// Translator translates a single word
type Translator interface {
	TranslateWord(ctx context.Context, word string) (*translation.Result, error)
}

// Outcome is the result for one entry
type Outcome struct {
	Entry  Entry
	Result *translation.Result
	Err    error
}

// Matches reports whether the translation agrees with the expected word.
// Entries without an expectation always match.
func (o Outcome) Matches() bool {
	if o.Entry.Expected == "" {
		return true
	}

	return o.Result != nil && strings.EqualFold(o.Result.OutputWord, o.Entry.Expected)
}

// ReadBatchFile reads words from a file, one per line.
// Supports formats:
// - word only: "măr"
// - with an expected translation: "măr = Apfel"
// Blank lines and lines starting with '#' are skipped.
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := Entry{Word: line, Line: n}
		if word, expected, ok := strings.Cut(line, "="); ok {
			entry.Word = strings.TrimSpace(word)
			entry.Expected = strings.TrimSpace(expected)
		}

		// "= Apfel" has nothing to translate
		if entry.Word == "" {
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}

// Run translates all entries with at most concurrency translations in
// flight. Repeated words are translated once. Outcomes come back in input
// order; a failing word never stops the others.
func Run(ctx context.Context, entries []Entry, translator Translator, concurrency int) ([]Outcome, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	cache := translation.NewTranslationCache()

	var mu sync.Mutex
	failures := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(concurrency)

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.Word] {
			continue
		}
		seen[entry.Word] = true

		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			result, err := translator.TranslateWord(ctx, entry.Word)
			if err != nil {
				log.Warn().Str("word", entry.Word).Err(err).Msg("Batch translation failed")
				mu.Lock()
				failures[entry.Word] = err
				mu.Unlock()
				return nil
			}

			cache.Add(entry.Word, result)
			return nil
		})
	}

	_ = g.Wait()

	outcomes := make([]Outcome, 0, len(entries))
	for _, entry := range entries {
		outcome := Outcome{Entry: entry}
		if result, ok := cache.Get(entry.Word); ok {
			outcome.Result = result
		} else if err, ok := failures[entry.Word]; ok {
			outcome.Err = err
		} else {
			outcome.Err = ctx.Err()
		}
		outcomes = append(outcomes, outcome)
	}

	log.Debug().
		Int("entries", len(entries)).
		Int("translated", cache.Len()).
		Int("failed", len(failures)).
		Msg("Batch finished")

	return outcomes, ctx.Err()
}
