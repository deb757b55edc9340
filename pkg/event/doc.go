// Package event defines the asynchronous events that drive a provisioning
// session.
//
// Events come from three independent sources, each with its own namespace:
//
//   - WIFI_PROV_EVENT: the provisioning manager (credentials received,
//     rejected, accepted, session ended)
//   - WIFI_EVENT: the Wi-Fi driver (station started, disconnected, ...)
//   - IP_EVENT: the IP stack (station acquired an address, ...)
//
// Event is a closed tagged union: the only implementations are
// ProtocolEvent, DriverEvent and IPEvent. Consumers switch on the concrete
// type and then on the Kind field.
//
// No ordering is guaranteed across namespaces. Within one namespace events
// are delivered in emission order by the event loop.
package event
