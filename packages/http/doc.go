// Package http executes request descriptors for hitflow.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts and redirect handling
//   - Per-request TLS verification
//   - Optional proxy, default headers and rate limiting
//   - Response bodies parsed as JSON when possible, whatever the content type
package http
