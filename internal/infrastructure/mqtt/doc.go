// Package mqtt is the optional status publisher.
//
// When enabled, every device state transition, actuator position, and
// enable change is mirrored to a retained MQTT topic under
// shadowline/status/<device>/<field>, and a Last Will marks the daemon
// offline. The daemon never subscribes: MQTT is an outbound window
// into the automation, not a control channel — control stays on the
// KNX bus.
package mqtt
