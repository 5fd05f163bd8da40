// Package config loads and validates Shadowline Core configuration.
//
// Two layers of configuration exist:
//
//   - The root config (configs/config.yaml): site location and timezone,
//     knxd connection, state database, optional MQTT/InfluxDB sinks, logging.
//   - Per-device configs (configs/devices/*.yaml): one file per device
//     instance, naming its kind, its sensor and actuator group addresses,
//     and — for shading devices — the shading tuning parameters.
//
// Precedence for the root config: built-in defaults, then the YAML file,
// then SHADOWLINE_* environment variables. Configuration is read once at
// startup; there is no runtime reconfiguration.
package config
