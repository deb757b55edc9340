// Package discovery advertises a SoftAP provisioning endpoint over mDNS.
//
// While a device runs the SoftAP scheme, a companion joining the temporary
// access point finds the provisioning endpoint by browsing for
// _wifiprov._tcp in the local domain. The instance name is the service name
// (the AP network name), and TXT records describe how to talk to it:
//
//	ver=v1.1     protocol version
//	scheme=softap
//	sec=0|1      security level
//	pop=0|1      whether a proof-of-possession is required
//
// Advertising stops when the provisioning manager is deinitialized.
package discovery
