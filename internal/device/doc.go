// Package device is the device runtime: the lifecycle contract device
// kinds implement, the registry that dispatches inbound telegrams to
// sensor handlers by group address, and the persistent state store.
//
// Device instances are created once at startup from per-device
// configuration files, restored from the state store, initialised, and
// then driven entirely by two event sources: scheduler jobs and inbound
// sensor telegrams. The runtime guarantees that no two handlers for the
// same device run concurrently, and that one device's failure never
// stops another device's handlers.
package device
