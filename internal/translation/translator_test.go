package translation

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/rode/internal/lang"
	"codeberg.org/snonux/rode/internal/reverso"
	"codeberg.org/snonux/rode/internal/testutil"
)

func newTestTranslator(direct, contextual string, opts ...Option) (*Translator, *testutil.MockCollaborator) {
	mock := testutil.NewMockCollaborator(direct, contextual)
	return NewTranslator(mock, lang.DefaultPair(), opts...), mock
}

func TestTranslateWord_DirectTranslation(t *testing.T) {
	translator, mock := newTestTranslator(`{"ok":true,"result":{"translation":["Apfel"]}}`, `{"ok":true}`)

	result, err := translator.TranslateWord(context.Background(), "măr")
	require.NoError(t, err)

	assert.Equal(t, "măr", result.Input)
	assert.Equal(t, "Apfel", result.OutputWord)
	assert.Equal(t, "german", result.OutputLanguage)
	assert.Equal(t, "romanian", result.SourceLanguage)
	assert.Equal(t, StrategyTranslation, result.Strategy)
	assert.JSONEq(t, `{"ok":true,"result":{"translation":["Apfel"]}}`, string(result.Details["ro_de_raw"]))

	assert.Equal(t, []string{"translation măr (romanian->german)"}, mock.RecordedCalls(),
		"context mode must not be invoked after a direct hit")
}

func TestTranslateWord_FallsBackToContext(t *testing.T) {
	translator, mock := newTestTranslator(
		`{"ok":true,"result":{"translation":[]}}`,
		`{"ok":true,"result":{"examples":[{"translation":"Baum"}]}}`,
	)

	result, err := translator.TranslateWord(context.Background(), "copac")
	require.NoError(t, err)

	assert.Equal(t, "Baum", result.OutputWord)
	assert.Equal(t, StrategyContext, result.Strategy)
	assert.JSONEq(t, `{"ok":true,"result":{"examples":[{"translation":"Baum"}]}}`, string(result.Details["ro_de_raw"]))
	assert.Equal(t, []string{
		"translation copac (romanian->german)",
		"context copac (romanian->german)",
	}, mock.RecordedCalls())
}

func TestTranslateWord_FallsBackOnFailedDirect(t *testing.T) {
	translator, _ := newTestTranslator(
		`{"ok":false,"message":"boom"}`,
		`{"ok":true,"result":{"translations":["Baum"]}}`,
	)

	result, err := translator.TranslateWord(context.Background(), "copac")
	require.NoError(t, err)
	assert.Equal(t, "Baum", result.OutputWord)
	assert.Equal(t, StrategyContext, result.Strategy)
}

func TestTranslateWord_FallsBackOnEmptyDirectString(t *testing.T) {
	translator, _ := newTestTranslator(
		`{"ok":true,"result":{"translation":[""]}}`,
		`{"ok":true,"result":{"translation":["Baum"]}}`,
	)

	result, err := translator.TranslateWord(context.Background(), "copac")
	require.NoError(t, err)
	assert.Equal(t, "Baum", result.OutputWord)
	assert.Equal(t, StrategyContext, result.Strategy)
}

func TestTranslateWord_LaterDirectFieldWins(t *testing.T) {
	translator, mock := newTestTranslator(
		`{"ok":true,"result":{"translation":[],"translations":["Apfel"]}}`,
		`{"ok":false,"message":"rate limited"}`,
	)

	result, err := translator.TranslateWord(context.Background(), "măr")
	require.NoError(t, err)
	assert.Equal(t, "Apfel", result.OutputWord)
	assert.Equal(t, StrategyTranslation, result.Strategy)
	assert.Equal(t, 1, mock.CallCount(), "no context invocation after a direct hit")
}

func TestTranslateWord_BothFail(t *testing.T) {
	translator, mock := newTestTranslator(`{"ok":false}`, `{"ok":false,"message":"rate limited"}`)

	_, err := translator.TranslateWord(context.Background(), "măr")
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, reverso.ModeContext, upstream.Stage)
	assert.Equal(t, "RO→DE failed: rate limited", upstream.Message)
	assert.Equal(t, 2, mock.CallCount())
}

func TestTranslateWord_UnknownError(t *testing.T) {
	translator, _ := newTestTranslator(`{"ok":false}`, `{"ok":false}`)

	_, err := translator.TranslateWord(context.Background(), "măr")
	require.Error(t, err)
	assert.Equal(t, "RO→DE failed: Unknown error", err.Error())
}

func TestTranslateWord_NoUsableCandidate(t *testing.T) {
	translator, _ := newTestTranslator(
		`{"ok":true,"result":{"other":["Apfel"]}}`,
		`{"ok":true,"result":{"examples":[{"source":"măr"}]}}`,
	)

	_, err := translator.TranslateWord(context.Background(), "măr")
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.ErrorIs(t, err, ErrNoCandidate)
	assert.Equal(t, "RO→DE returned no usable German candidate (context).", upstream.Message)
}

func TestTranslateWord_InvocationErrors(t *testing.T) {
	tests := []struct {
		name  string
		mode  reverso.Mode
		err   error
		calls int
	}{
		{"malformed direct output", reverso.ModeTranslation, reverso.ErrMalformedOutput, 1},
		{"context timeout", reverso.ModeContext, reverso.ErrTimeout, 2},
		{"breaker open", reverso.ModeTranslation, reverso.ErrUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator, mock := newTestTranslator(`{"ok":true,"result":{"translation":[]}}`, `{"ok":true}`)
			mock.Errors[tt.mode] = tt.err

			_, err := translator.TranslateWord(context.Background(), "măr")

			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream), "expected UpstreamError, got %v", err)
			assert.Equal(t, tt.mode, upstream.Stage)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, upstream.Message, "RO→DE failed:")
			assert.Equal(t, tt.calls, mock.CallCount())
		})
	}
}

func TestTranslateWord_FailedWordsDoNotAffectOthers(t *testing.T) {
	mock := testutil.NewMockCollaborator(`{"ok":false}`, `{"ok":false,"message":"not found"}`)
	mock.Words["măr"] = map[reverso.Mode]string{
		reverso.ModeTranslation: `{"ok":true,"result":{"translation":["Apfel"]}}`,
	}

	breaker := reverso.NewBreaker("helper", mock, reverso.DefaultBreakerConfig())
	translator := NewTranslator(breaker, lang.DefaultPair())

	for _, word := range []string{"xq1", "xq2", "xq3", "xq4", "xq5", "xq6"} {
		_, err := translator.TranslateWord(context.Background(), word)
		require.Error(t, err)
		assert.Equal(t, "RO→DE failed: not found", err.Error(), "word %s", word)
		assert.NotErrorIs(t, err, reverso.ErrUnavailable)
	}

	result, err := translator.TranslateWord(context.Background(), "măr")
	require.NoError(t, err)
	assert.Equal(t, "Apfel", result.OutputWord)
}

func TestTranslateWord_EmptyWord(t *testing.T) {
	translator, mock := newTestTranslator(`{"ok":true}`, `{"ok":true}`)

	for _, word := range []string{"", "   ", "\t\n"} {
		_, err := translator.TranslateWord(context.Background(), word)
		assert.ErrorIs(t, err, ErrEmptyWord)
	}

	assert.Zero(t, mock.CallCount(), "blank words must not reach the helper")
}

func TestTranslateWord_OtherPair(t *testing.T) {
	mock := testutil.NewMockCollaborator(`{"ok":true,"result":{"translation":["bonjour"]}}`, `{"ok":true}`)
	translator := NewTranslator(mock, lang.Pair{Source: "English", Target: " french "})

	result, err := translator.TranslateWord(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "french", result.OutputLanguage)
	assert.Equal(t, "english", result.SourceLanguage)
	assert.Contains(t, result.Details, "en_fr_raw")
	assert.Equal(t, []string{"translation hello (english->french)"}, mock.RecordedCalls())
}

type recorderFunc func(ctx context.Context, result *Result) error

func (f recorderFunc) Record(ctx context.Context, result *Result) error {
	return f(ctx, result)
}

func TestTranslateWord_Recorder(t *testing.T) {
	var recorded []string
	recorder := recorderFunc(func(ctx context.Context, result *Result) error {
		recorded = append(recorded, result.Input+"="+result.OutputWord)
		return errors.New("disk full")
	})

	translator, _ := newTestTranslator(`{"ok":true,"result":{"translation":["Apfel"]}}`, `{"ok":true}`, WithRecorder(recorder))

	result, err := translator.TranslateWord(context.Background(), "măr")
	require.NoError(t, err, "recorder failures must not fail the translation")
	assert.Equal(t, "Apfel", result.OutputWord)
	assert.Equal(t, []string{"măr=Apfel"}, recorded)

	// Failures are not recorded
	failing, _ := newTestTranslator(`{"ok":false}`, `{"ok":false}`, WithRecorder(recorder))
	_, err = failing.TranslateWord(context.Background(), "măr")
	require.Error(t, err)
	assert.Len(t, recorded, 1)
}

func TestResultJSON(t *testing.T) {
	translator, _ := newTestTranslator(`{"ok":true,"result":{"translation":["Apfel"]}}`, `{"ok":true}`)

	result, err := translator.TranslateWord(context.Background(), "măr")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}

	want := []string{"details", "input", "output_language", "output_word", "source_language", "strategy"}
	assert.ElementsMatch(t, want, keys)
}

func TestTranslationCache(t *testing.T) {
	cache := NewTranslationCache()

	// Test empty cache
	_, found := cache.Get("măr")
	if found {
		t.Error("Expected not found in empty cache")
	}

	// Test adding and retrieving
	cache.Add("măr", &Result{Input: "măr", OutputWord: "Apfel"})
	cache.Add("pisică", &Result{Input: "pisică", OutputWord: "Katze"})

	result, found := cache.Get("măr")
	if !found {
		t.Fatal("Expected to find 'măr' in cache")
	}
	if result.OutputWord != "Apfel" {
		t.Errorf("Expected 'Apfel', got '%s'", result.OutputWord)
	}

	// Test overwriting
	cache.Add("măr", &Result{Input: "măr", OutputWord: "Apfel (Frucht)"})
	result, _ = cache.Get("măr")
	if result.OutputWord != "Apfel (Frucht)" {
		t.Errorf("Expected 'Apfel (Frucht)', got '%s'", result.OutputWord)
	}

	if cache.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", cache.Len())
	}
}

func TestTranslationCache_GetAll(t *testing.T) {
	cache := NewTranslationCache()

	cache.Add("măr", &Result{OutputWord: "Apfel"})
	cache.Add("pisică", &Result{OutputWord: "Katze"})
	cache.Add("câine", &Result{OutputWord: "Hund"})

	all := cache.GetAll()

	expected := map[string]string{
		"măr":    "Apfel",
		"pisică": "Katze",
		"câine":  "Hund",
	}

	if !reflect.DeepEqual(all, expected) {
		t.Errorf("GetAll() = %v, want %v", all, expected)
	}

	// Test that modifying returned map doesn't affect cache
	all["măr"] = "modified"

	result, _ := cache.Get("măr")
	if result.OutputWord != "Apfel" {
		t.Error("Cache was modified through returned map")
	}
}
