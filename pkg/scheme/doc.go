// Package scheme resolves the out-of-band transport used to carry
// provisioning traffic.
//
// Two schemes are configured:
//   - BLE: a GATT service under a fixed 16-byte service UUID. The Bluetooth
//     controller memory is released once provisioning ends.
//   - SOFT_AP: a temporary local access point. The AP network interface must
//     be brought up alongside the station interface.
//
// CONSOLE is a reserved scheme value with no adapter; Resolve rejects it with
// ErrUnconfigured instead of falling back to another scheme.
package scheme
