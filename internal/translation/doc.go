// Package translation turns a single word into a translation by asking the
// helper for direct translations first and falling back to contextual
// examples. It also provides an in-memory cache used by batch runs.
package translation
