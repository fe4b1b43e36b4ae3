// Package session owns receive-loop pacing.
//
// Ownership boundary:
// - poll configuration and receive limits
// - idle back-off between empty non-blocking polls
package session
