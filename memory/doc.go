// Package memory provides a thread-safe chat history buffer shared between
// planner runs.
package memory
