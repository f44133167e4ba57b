// Package middleware provides HTTP middleware for request identification,
// request-scoped logging, and Prometheus metrics.
package middleware

// contextKey is a private type for context keys defined in this package.
type contextKey string
