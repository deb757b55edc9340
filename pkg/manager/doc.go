// Package manager is a reference provisioning manager service.
//
// The Service owns the out-of-band provisioning channel. It is the only
// source of WIFI_PROV_EVENT events: a companion connects through a Channel,
// runs the security handshake, and sends the station configuration as an
// encrypted CBOR payload. The service validates the configuration, posts the
// corresponding protocol events, and restarts the station so the new
// configuration takes effect.
//
// Lifecycle:
//
//	IDLE -> Init -> INITIALIZED -> Start -> RUNNING -> STOPPING -> STOPPED
//
// After the station obtains an address the service waits for the grace
// window set with DisableAutoStop, posts WIFI_PROV_END, and stops itself.
// Deinit may be called at any time and is idempotent.
package manager
