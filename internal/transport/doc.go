// Package transport adapts ZeroMQ sockets to the frame channel contract.
//
// Ownership boundary:
// - push/pull queue channel endpoints
// - pub/sub broadcast channel endpoints
// - in-process pipe for tests and single-process wiring
package transport
