// Package reverso invokes the external Reverso helper process. A request
// envelope is written to the helper's stdin and the JSON document it prints
// is returned as an untyped Payload. The package also provides a circuit
// breaker that can wrap any Collaborator.
package reverso
