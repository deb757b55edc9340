// Package log provides structured capture of provisioning sessions.
//
// Capture is separate from operational logging (slog). Every event a session
// routes, every outcome or manager state transition, and every failed side
// effect is recorded as an Event tagged with the session ID, giving a
// machine-readable trace of why a session ended the way it did.
//
//	// Development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Field devices: write a capture file
//	fl, _ := log.NewFileLogger("/var/log/wifiprov/session.plog")
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(logger), fl)
//
// Capture files are a stream of CBOR-encoded events with the .plog
// extension. The wifiprov-log tool views and summarizes them.
package log
