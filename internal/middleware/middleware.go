// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request logging, tracing, metrics, CORS,
// rate limiting and panic recovery. GlobalErrorHandler is the single
// place where errors become HTTP responses.
package middleware
