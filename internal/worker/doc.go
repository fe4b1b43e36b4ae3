// Package worker owns the receive side.
//
// A Loop connects one frame.Receiver, polls it without blocking, decodes each
// message with a fixed decoder and hands the result to a consumer callback.
//
// Lifecycle order:
// - connecting -> polling -> (decoding -> polling)* -> draining -> terminated
//
// - connect failure ends the loop without retry.
//
// - malformed messages are logged and skipped.
//
// - any channel error other than would-block or terminated is fatal.
//
// One goroutine owns each Loop. It blocks only for the idle sleep.
package worker
