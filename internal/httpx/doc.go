// Package httpx is the HTTP layer used for all catalog traffic. It
// injects repository credentials, retries transient failures with
// exponential backoff, and fails fast on 4xx responses, which signal
// client-side misconfiguration rather than a flaky network.
package httpx
