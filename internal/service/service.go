// Package service turns repository outcomes into API answers: it decides
// which status and which message each operation reports, and never touches
// SQL or HTTP plumbing itself.
package service
