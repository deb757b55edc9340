package event

import (
	"fmt"
	"net/netip"
)

// Namespace identifies an event source.
type Namespace string

// Event namespaces.
const (
	// NamespaceProtocol carries provisioning manager events.
	NamespaceProtocol Namespace = "WIFI_PROV_EVENT"

	// NamespaceWiFi carries Wi-Fi driver events.
	NamespaceWiFi Namespace = "WIFI_EVENT"

	// NamespaceIP carries IP stack events.
	NamespaceIP Namespace = "IP_EVENT"
)

// Namespaces lists every namespace a provisioning session listens on.
func Namespaces() []Namespace {
	return []Namespace{NamespaceProtocol, NamespaceWiFi, NamespaceIP}
}

// Event is one asynchronous input to a provisioning session.
type Event interface {
	// Namespace returns the source namespace of the event.
	Namespace() Namespace

	// ID returns the event identifier within its namespace.
	ID() string

	isEvent()
}

// ProtocolKind identifies a provisioning manager event.
type ProtocolKind uint8

const (
	// ProtocolStarted - the provisioning service is up.
	ProtocolStarted ProtocolKind = iota

	// CredReceived - the companion delivered station credentials.
	CredReceived

	// CredFailed - the credentials or the handshake were rejected.
	CredFailed

	// CredSucceeded - the protocol layer accepted the credentials.
	CredSucceeded

	// End - the manager is shutting down.
	End
)

// String returns the event id name.
func (k ProtocolKind) String() string {
	switch k {
	case ProtocolStarted:
		return "WIFI_PROV_START"
	case CredReceived:
		return "WIFI_PROV_CRED_RECV"
	case CredFailed:
		return "WIFI_PROV_CRED_FAIL"
	case CredSucceeded:
		return "WIFI_PROV_CRED_SUCCESS"
	case End:
		return "WIFI_PROV_END"
	default:
		return "UNKNOWN"
	}
}

// FailReason classifies a CredFailed event.
type FailReason uint8

const (
	// ReasonNone - no reason given.
	ReasonNone FailReason = iota

	// ReasonAuthError - the network rejected the passphrase.
	ReasonAuthError

	// ReasonAPNotFound - the network could not be found.
	ReasonAPNotFound

	// ReasonHandshake - the security handshake with the companion failed.
	ReasonHandshake
)

// String returns the reason name.
func (r FailReason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonAuthError:
		return "AUTH_ERROR"
	case ReasonAPNotFound:
		return "AP_NOT_FOUND"
	case ReasonHandshake:
		return "HANDSHAKE"
	default:
		return "UNKNOWN"
	}
}

// ProtocolEvent is emitted by the provisioning manager.
type ProtocolEvent struct {
	Kind ProtocolKind

	// SSID and Password are set for CredReceived.
	SSID     string
	Password string

	// Reason is set for CredFailed.
	Reason FailReason
}

// Namespace implements Event.
func (ProtocolEvent) Namespace() Namespace { return NamespaceProtocol }

// ID implements Event.
func (e ProtocolEvent) ID() string { return e.Kind.String() }

func (ProtocolEvent) isEvent() {}

// String omits the password.
func (e ProtocolEvent) String() string {
	switch e.Kind {
	case CredReceived:
		return fmt.Sprintf("%s(ssid=%q)", e.Kind, e.SSID)
	case CredFailed:
		return fmt.Sprintf("%s(reason=%s)", e.Kind, e.Reason)
	default:
		return e.Kind.String()
	}
}

// DriverKind identifies a Wi-Fi driver event.
type DriverKind uint8

const (
	// DriverScanDone - a scan completed.
	DriverScanDone DriverKind = iota

	// DriverStationStarted - the station interface started.
	DriverStationStarted

	// DriverStationStopped - the station interface stopped.
	DriverStationStopped

	// DriverStationConnected - the station associated with an access point.
	DriverStationConnected

	// DriverStationDisconnected - the station lost or failed its association.
	DriverStationDisconnected

	// DriverAPStarted - the local access point started.
	DriverAPStarted

	// DriverAPStopped - the local access point stopped.
	DriverAPStopped
)

// String returns the event id name.
func (k DriverKind) String() string {
	switch k {
	case DriverScanDone:
		return "WIFI_EVENT_SCAN_DONE"
	case DriverStationStarted:
		return "WIFI_EVENT_STA_START"
	case DriverStationStopped:
		return "WIFI_EVENT_STA_STOP"
	case DriverStationConnected:
		return "WIFI_EVENT_STA_CONNECTED"
	case DriverStationDisconnected:
		return "WIFI_EVENT_STA_DISCONNECTED"
	case DriverAPStarted:
		return "WIFI_EVENT_AP_START"
	case DriverAPStopped:
		return "WIFI_EVENT_AP_STOP"
	default:
		return "UNKNOWN"
	}
}

// DisconnectReason explains a DriverStationDisconnected event.
type DisconnectReason uint8

const (
	// DisconnectUnspecified - no reason reported.
	DisconnectUnspecified DisconnectReason = iota

	// DisconnectAuthFail - the passphrase was wrong.
	DisconnectAuthFail

	// DisconnectNoAPFound - no access point with the SSID was found.
	DisconnectNoAPFound

	// DisconnectAssocLeave - the station left on request.
	DisconnectAssocLeave
)

// String returns the reason name.
func (r DisconnectReason) String() string {
	switch r {
	case DisconnectUnspecified:
		return "UNSPECIFIED"
	case DisconnectAuthFail:
		return "AUTH_FAIL"
	case DisconnectNoAPFound:
		return "NO_AP_FOUND"
	case DisconnectAssocLeave:
		return "ASSOC_LEAVE"
	default:
		return "UNKNOWN"
	}
}

// DriverEvent is emitted by the Wi-Fi driver.
type DriverEvent struct {
	Kind DriverKind

	// Reason is set for DriverStationDisconnected.
	Reason DisconnectReason
}

// Namespace implements Event.
func (DriverEvent) Namespace() Namespace { return NamespaceWiFi }

// ID implements Event.
func (e DriverEvent) ID() string { return e.Kind.String() }

func (DriverEvent) isEvent() {}

// String includes the reason for disconnects.
func (e DriverEvent) String() string {
	if e.Kind == DriverStationDisconnected {
		return fmt.Sprintf("%s(reason=%s)", e.Kind, e.Reason)
	}
	return e.Kind.String()
}

// IPKind identifies an IP stack event.
type IPKind uint8

const (
	// IPGotIP - the station interface acquired an address.
	IPGotIP IPKind = iota

	// IPLostIP - the station interface lost its address.
	IPLostIP
)

// String returns the event id name.
func (k IPKind) String() string {
	switch k {
	case IPGotIP:
		return "IP_EVENT_STA_GOT_IP"
	case IPLostIP:
		return "IP_EVENT_STA_LOST_IP"
	default:
		return "UNKNOWN"
	}
}

// IPEvent is emitted by the IP stack.
type IPEvent struct {
	Kind IPKind

	// Address is set for IPGotIP.
	Address netip.Addr
}

// Namespace implements Event.
func (IPEvent) Namespace() Namespace { return NamespaceIP }

// ID implements Event.
func (e IPEvent) ID() string { return e.Kind.String() }

func (IPEvent) isEvent() {}

// String includes the acquired address.
func (e IPEvent) String() string {
	if e.Kind == IPGotIP && e.Address.IsValid() {
		return fmt.Sprintf("%s(addr=%s)", e.Kind, e.Address)
	}
	return e.Kind.String()
}

// Compile-time interface satisfaction checks.
var (
	_ Event = ProtocolEvent{}
	_ Event = DriverEvent{}
	_ Event = IPEvent{}
)
