// Package curl turns curl-style command lines into request descriptors.
//
// The parser understands shell quoting (single quotes, double quotes and
// backslash escapes), backslash line continuations and the subset of curl
// flags that shape a request: method, headers, body, TLS verification, user
// agent, basic auth and referer. Output-only flags are skipped together with
// their values so they are never mistaken for the URL.
//
// It is not a shell: there are no pipes, redirections or variable expansion.
package curl
