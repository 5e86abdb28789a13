// Package monitor runs the reader poll loop and arbitrates tag events.
//
// Ownership boundary:
// - the active terminal and its adapter lifecycle (Detect/Run/Shutdown)
//
// - tag status tracking and change-only notification
//
// - read/write subscriber registration
//
// - the read-before-write arbitration policy and its status messages
//
// One mutex serializes terminal start/stop, tag handle assignment,
// subscriber registration and arbitration. Host notifications must not
// block; subscriber callbacks run synchronously under that mutex and must
// not call back into the Monitor.
package monitor
