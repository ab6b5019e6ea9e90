// Package openai provides a plan predictor built directly on the OpenAI API
// using JSON response mode, for callers who want stricter structured output
// than a generic chat model offers.
package openai
