// Package history keeps an optional append-only SQLite journal of the
// events the gateway publishes.
//
// The journal is strictly a sink at runtime. The gateway never reads
// it on startup or otherwise, so device state still resets completely
// on every restart; the rows exist for after-the-fact inspection.
package history
