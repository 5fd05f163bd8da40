package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Shadowline Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Bus      BusConfig      `yaml:"bus"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`

	// DevicesDir is the directory scanned for per-device YAML files.
	DevicesDir string `yaml:"devices_dir"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	Name     string         `yaml:"name"`
	Timezone string         `yaml:"timezone"`
	Location LocationConfig `yaml:"location"`
}

// LocationConfig contains geographic coordinates for astronomical calculations.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// BusConfig contains knxd connection settings.
type BusConfig struct {
	// Connection is the knxd connection URL.
	// Supported formats: "unix:///run/knxd", "tcp://localhost:6720"
	Connection string `yaml:"connection"`

	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// DatabaseConfig contains SQLite database settings for device state persistence.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the optional status publisher.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains settings for the optional telemetry writer.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DeviceConfig describes one device instance, loaded from a file in DevicesDir.
// The file name (without extension) becomes the device name.
type DeviceConfig struct {
	Name string `yaml:"-"`

	// Kind selects the device implementation ("automatic_shading", "logic_inverter").
	Kind string `yaml:"kind"`

	// Sensors maps a sensor role to the group address the device listens on.
	Sensors map[string]string `yaml:"sensors"`

	// Actuators maps an actuator role to the group address the device writes to.
	Actuators map[string]string `yaml:"actuators"`

	Shading ShadingConfig `yaml:"shading"`
}

// ShadingConfig contains the static tuning parameters of an automatic-shading device.
type ShadingConfig struct {
	// CardinalDirection is the compass bearing the facade faces, in degrees.
	CardinalDirection float64 `yaml:"cardinal_direction"`

	// RangeStart and RangeStop are angular offsets from CardinalDirection that
	// define the sun-in-range window: [direction-start, direction+stop].
	RangeStart float64 `yaml:"range_start"`
	RangeStop  float64 `yaml:"range_stop"`

	// SlatWidth and SlatSpacing describe the blind geometry in millimetres.
	SlatWidth   float64 `yaml:"slat_width"`
	SlatSpacing float64 `yaml:"slat_spacing"`

	// MinChangeTracking is the minimum slat change, in percentage points,
	// that is worth sending to the bus while tracking the sun.
	MinChangeTracking float64 `yaml:"min_change_tracking"`

	// SwitchOnDelay and SwitchOffDelay are the debounce delays in seconds.
	// Both can be adjusted at runtime via the corresponding bus sensors.
	SwitchOnDelay  int `yaml:"switch_on_delay"`
	SwitchOffDelay int `yaml:"switch_off_delay"`

	// BrightnessSetpoint is the default lux threshold; adjustable via sensor.
	BrightnessSetpoint float64 `yaml:"brightness_setpoint"`

	// TickInterval is the shading evaluation period in seconds.
	TickInterval int `yaml:"tick_interval"`

	// SearchTolerance is the maximum angular distance, in degrees, between
	// the target azimuth and the best coarse sample before the range search
	// reports that the sun never comes into range.
	SearchTolerance float64 `yaml:"search_tolerance"`
}

// Load reads the root configuration from a YAML file.
//
// Order of precedence: defaults, then YAML, then SHADOWLINE_* environment
// overrides. The result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDevices scans dir for *.yaml files and parses each into a DeviceConfig.
//
// A file that fails to parse is returned in the errs map under its device
// name rather than aborting the scan; the daemon creates the devices that
// parsed and logs the rest.
func LoadDevices(dir string) (map[string]*DeviceConfig, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading devices dir: %w", err)
	}

	devices := make(map[string]*DeviceConfig)
	errs := make(map[string]error)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs[name] = fmt.Errorf("reading device config: %w", err)
			continue
		}

		dc := &DeviceConfig{Name: name}
		if err := yaml.Unmarshal(data, dc); err != nil {
			errs[name] = fmt.Errorf("parsing device config: %w", err)
			continue
		}
		if dc.Kind == "" {
			errs[name] = fmt.Errorf("device config missing kind")
			continue
		}

		devices[name] = dc
	}

	return devices, errs, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:     "Shadowline",
			Timezone: "UTC",
		},
		Bus: BusConfig{
			Connection:        "tcp://localhost:6720",
			ConnectTimeout:    10 * time.Second,
			ReadTimeout:       30 * time.Second,
			ReconnectInterval: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/shadowline.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "shadowline-core",
			},
			QoS: 1,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		DevicesDir: "configs/devices",
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SHADOWLINE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHADOWLINE_BUS_CONNECTION"); v != "" {
		cfg.Bus.Connection = v
	}
	if v := os.Getenv("SHADOWLINE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SHADOWLINE_DEVICES_DIR"); v != "" {
		cfg.DevicesDir = v
	}
	if v := os.Getenv("SHADOWLINE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SHADOWLINE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SHADOWLINE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("SHADOWLINE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.Timezone == "" {
		errs = append(errs, "site.timezone is required")
	} else if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone: %v", err))
	}
	if c.Site.Location.Latitude < -90 || c.Site.Location.Latitude > 90 {
		errs = append(errs, "site.location.latitude must be between -90 and 90")
	}
	if c.Site.Location.Longitude < -180 || c.Site.Location.Longitude > 180 {
		errs = append(errs, "site.location.longitude must be between -180 and 180")
	}

	if c.Bus.Connection == "" {
		errs = append(errs, "bus.connection is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.DevicesDir == "" {
		errs = append(errs, "devices_dir is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Timezone returns the parsed site timezone.
// Validate guarantees the name loads; a bad name here falls back to UTC.
func (c *Config) Timezone() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
