// Package persistence provides the durable credential store used during
// provisioning.
//
// FileStore keeps the station configuration applied by the radio in a small
// versioned JSON file. Before a provisioning session starts the store must be
// opened; EnsureReady performs the single repair step allowed when the store
// is corrupt or was written by an incompatible version: erase once, reopen
// once, and give up otherwise.
package persistence
