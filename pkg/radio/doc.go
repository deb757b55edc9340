// Package radio provides a simulated Wi-Fi radio stack.
//
// Sim stands in for the station (and optional access point) interfaces of a
// device. It reacts to the calls a provisioning session makes on a radio
// (InitInterfaces, ApplyStationConfig, Connect) by posting the driver and IP
// events a real stack would emit:
//
//   - StartStation posts WIFI_EVENT_STA_START (and WIFI_EVENT_AP_START when
//     the AP interface was requested)
//   - Connect posts WIFI_EVENT_STA_CONNECTED followed by IP_EVENT_STA_GOT_IP
//     when the applied credentials match a reachable network, or
//     WIFI_EVENT_STA_DISCONNECTED with AUTH_FAIL / NO_AP_FOUND otherwise
//
// Applied station configurations can be persisted through a StationSaver,
// mirroring flash-backed Wi-Fi configuration storage.
package radio
