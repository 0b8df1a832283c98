// Package kv provides the single-command atomic store facade every
// coordination primitive is built on.
//
// # Atomicity contract
//
// Each method maps to exactly one Redis command and is therefore atomic for
// its key. No method spans multiple keys; primitives needing cross-key
// behavior must tolerate the resulting non-atomicity themselves.
//
// # Absence vs failure
//
// Read-style methods (Get, GetAndRefreshExpiry, TimeToLive) report a missing
// key through their ok/absent return, never through the error. An error
// always means the store itself misbehaved and wraps [ErrUnavailable].
//
// # What this package must NOT do
//
//   - Expose pipelines, transactions, or Lua scripting.
//   - Encode domain key schemas (those live with each primitive).
//   - Be imported outside the goCoord module.
package kv
