// Package errs defines the error types the HTTP layer understands.
//
// Every failure that should reach a client is expressed as an *HTTPError:
// it knows its status, a machine-readable code and the message the client
// sees. The internal cause (driver errors, wrapped stack traces) travels
// alongside it for logging and never ends up in a response body.
package errs
