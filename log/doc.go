// Package log provides a small leveled logging interface for planweave.
//
// The Logger interface has Debug/Info/Warn/Error methods with Printf-style
// formatting. Two implementations ship with the package: DefaultLogger on top
// of the standard library, and GologLogger wrapping github.com/kataras/golog
// for users who already run golog. NoOpLogger silences logging entirely.
//
// A package-level default logger exists so the planner's verbose mode can log
// without threading a logger everywhere; components that accept a Logger in
// their config always prefer the injected one.
package log
