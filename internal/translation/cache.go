package translation

import "sync"

// TranslationCache stores translations in memory for batch operations.
// The HTTP service never uses it: every request invokes the helper afresh.
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[string]*Result
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]*Result),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(word string, result *Result) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.translations[word] = result
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(word string) (*Result, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	result, ok := tc.translations[word]
	return result, ok
}

// GetAll returns all cached output words keyed by input
func (tc *TranslationCache) GetAll() map[string]string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make(map[string]string, len(tc.translations))
	for k, v := range tc.translations {
		result[k] = v.OutputWord
	}
	return result
}

// Len returns the number of cached translations
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return len(tc.translations)
}
