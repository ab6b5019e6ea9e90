// Package llm turns free-form model output into validated plan structures.
// The default ModelPredictor works with any langchaingo llms.Model; the
// openai subpackage offers a native client that uses JSON response mode.
package llm
