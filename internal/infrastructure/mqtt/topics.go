package mqtt

import "fmt"

// Topic prefix for everything Shadowline publishes.
const topicPrefix = "shadowline"

// Topics builds the topic strings used by the daemon.
//
// Layout:
//
//	shadowline/system/status               daemon online/offline (retained, LWT)
//	shadowline/status/<device>/<field>     per-device state (retained)
//
// Fields in use: "state" (automaton mode), "position" (JSON height/slat),
// "enabled", "output".
type Topics struct{}

// SystemStatus returns the daemon availability topic.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceStatus returns the status topic for one field of one device.
func (Topics) DeviceStatus(device, field string) string {
	return fmt.Sprintf("%s/status/%s/%s", topicPrefix, device, field)
}
