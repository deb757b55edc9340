// Package provision runs a single device-side Wi-Fi provisioning session.
//
// A session brings up the provisioning manager on a transport scheme (BLE
// or SoftAP), waits for a companion to deliver station credentials, applies
// them, and reports whether the station obtained an IP address. Events
// arrive asynchronously from three sources:
//
//   - the provisioning manager (credentials received, accepted, rejected, end)
//   - the Wi-Fi driver (station started, station disconnected)
//   - the IP stack (address acquired)
//
// The Router turns each event into side effects and an Outcome. The first
// terminal event wins and releases the Gate that Begin blocks on.
//
//	p, err := provision.New(provision.Config{
//	    Store:   store,
//	    Radio:   sim,
//	    Bus:     loop,
//	    Manager: mgr,
//	})
//	outcome, err := p.Begin(ctx, provision.Request{
//	    Scheme:            scheme.SoftAP,
//	    Security:          security.Security1,
//	    ProofOfPossession: "abcd1234",
//	})
//
// Begin blocks until an outcome is known or Config.Timeout elapses, in
// which case it returns OutcomeTimedOut.
package provision
