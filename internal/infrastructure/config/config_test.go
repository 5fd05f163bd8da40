package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// ─── Root config ───────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
site:
  name: "Test Site"
  timezone: "Europe/Berlin"
  location:
    latitude: 52.0
    longitude: 13.4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bus.Connection != "tcp://localhost:6720" {
		t.Errorf("default bus.connection = %q, want tcp://localhost:6720", cfg.Bus.Connection)
	}
	if cfg.Bus.ConnectTimeout != 10*time.Second {
		t.Errorf("default bus.connect_timeout = %v, want 10s", cfg.Bus.ConnectTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want info", cfg.Logging.Level)
	}
	if cfg.DevicesDir != "configs/devices" {
		t.Errorf("default devices_dir = %q", cfg.DevicesDir)
	}
	if got := cfg.Timezone().String(); got != "Europe/Berlin" {
		t.Errorf("Timezone() = %q, want Europe/Berlin", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
site:
  timezone: "UTC"
bus:
  connection: "unix:///run/knxd"
`)

	t.Setenv("SHADOWLINE_BUS_CONNECTION", "tcp://bushost:6720")
	t.Setenv("SHADOWLINE_DATABASE_PATH", "/var/lib/shadowline/state.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bus.Connection != "tcp://bushost:6720" {
		t.Errorf("env override ignored, bus.connection = %q", cfg.Bus.Connection)
	}
	if cfg.Database.Path != "/var/lib/shadowline/state.db" {
		t.Errorf("env override ignored, database.path = %q", cfg.Database.Path)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad timezone",
			yaml:    "site:\n  timezone: \"Mars/Olympus\"\n",
			wantErr: "site.timezone",
		},
		{
			name:    "latitude out of range",
			yaml:    "site:\n  timezone: UTC\n  location:\n    latitude: 99\n",
			wantErr: "latitude",
		},
		{
			name:    "bad qos",
			yaml:    "site:\n  timezone: UTC\nmqtt:\n  qos: 7\n",
			wantErr: "mqtt.qos",
		},
		{
			name:    "influx enabled without url",
			yaml:    "site:\n  timezone: UTC\ninfluxdb:\n  enabled: true\n",
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

// ─── Device configs ────────────────────────────────────────────────

func TestLoadDevices(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "south-office.yaml", `
kind: automatic_shading
sensors:
  enable: "2/1/0"
  outdoor_brightness: "2/1/1"
actuators:
  position_height: "2/2/0"
  position_slat: "2/2/1"
shading:
  cardinal_direction: 180
  range_start: 45
  range_stop: 45
  slat_width: 80
  slat_spacing: 60
  min_change_tracking: 2
`)
	writeFile(t, dir, "hall-inverter.yaml", `
kind: logic_inverter
sensors:
  input: "3/0/1"
actuators:
  output: "3/0/2"
`)
	writeFile(t, dir, "broken.yaml", "kind: [not, a, string\n")
	writeFile(t, dir, "no-kind.yaml", "sensors:\n  input: \"1/1/1\"\n")
	writeFile(t, dir, "README.md", "ignored")

	devices, errs, err := LoadDevices(dir)
	if err != nil {
		t.Fatalf("LoadDevices() error = %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("LoadDevices() parsed %d devices, want 2", len(devices))
	}

	shading, ok := devices["south-office"]
	if !ok {
		t.Fatal("south-office not parsed")
	}
	if shading.Kind != "automatic_shading" {
		t.Errorf("south-office kind = %q", shading.Kind)
	}
	if shading.Shading.CardinalDirection != 180 {
		t.Errorf("cardinal_direction = %v, want 180", shading.Shading.CardinalDirection)
	}
	if shading.Sensors["outdoor_brightness"] != "2/1/1" {
		t.Errorf("outdoor_brightness sensor = %q", shading.Sensors["outdoor_brightness"])
	}

	if _, ok := errs["broken"]; !ok {
		t.Error("broken.yaml should produce a per-device error")
	}
	if _, ok := errs["no-kind"]; !ok {
		t.Error("no-kind.yaml should produce a per-device error")
	}
}

func TestLoadDevicesMissingDir(t *testing.T) {
	_, _, err := LoadDevices(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("LoadDevices() expected error for missing directory")
	}
}
