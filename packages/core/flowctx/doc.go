// Package flowctx holds the variables of a single flow run.
//
// A Context is created empty for every run and discarded when the run ends.
// Values captured from one response are stored under a name and substituted
// into later request templates wherever {{name}} appears. Names match
// [a-zA-Z_][a-zA-Z0-9_]*; any other text between braces is left alone.
//
// A Context is not safe for concurrent use. Concurrent runs must each own
// their own Context.
package flowctx
