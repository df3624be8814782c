package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  device_id: "backplate-test"
  serial_path: "/dev/ttyUSB0"
  periodic_interval: 30
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.DeviceID != "backplate-test" {
		t.Errorf("Gateway.DeviceID = %q, want %q", cfg.Gateway.DeviceID, "backplate-test")
	}

	if cfg.Gateway.SerialPath != "/dev/ttyUSB0" {
		t.Errorf("Gateway.SerialPath = %q, want %q", cfg.Gateway.SerialPath, "/dev/ttyUSB0")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Defaults should fill what the file omits
	if cfg.Gateway.BaudRate != 115200 {
		t.Errorf("Gateway.BaudRate = %d, want default 115200", cfg.Gateway.BaudRate)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
gateway:
  device_id: ""
  serial_path: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
gateway:
  device_id: "from-file"
  serial_path: "/dev/ttyO2"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("BACKPLATE_GATEWAY_DEVICE_ID", "from-env")
	t.Setenv("BACKPLATE_MQTT_HOST", "broker.example")
	t.Setenv("BACKPLATE_MQTT_PORT", "8883")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.DeviceID != "from-env" {
		t.Errorf("Gateway.DeviceID = %q, want env override %q", cfg.Gateway.DeviceID, "from-env")
	}
	if cfg.MQTT.Broker.Host != "broker.example" {
		t.Errorf("MQTT.Broker.Host = %q, want env override %q", cfg.MQTT.Broker.Host, "broker.example")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want env override 8883", cfg.MQTT.Broker.Port)
	}
}

func TestValidate_QoSRange(t *testing.T) {
	tests := []struct {
		name    string
		qos     int
		wantErr bool
	}{
		{"qos 0", 0, false},
		{"qos 1", 1, false},
		{"qos 2", 2, false},
		{"qos 3 invalid", 3, true},
		{"qos negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.MQTT.QoS = tt.qos
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InfluxDBRequiresToken(t *testing.T) {
	cfg := defaultConfig()
	cfg.InfluxDB.Enabled = true
	cfg.InfluxDB.URL = "http://localhost:8086"
	cfg.InfluxDB.Token = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for enabled influxdb without token, got nil")
	}
}

func TestGetPeriodicInterval(t *testing.T) {
	cfg := defaultConfig()
	cfg.Gateway.PeriodicInterval = 30

	if got := cfg.GetPeriodicInterval(); got != 30*time.Second {
		t.Errorf("GetPeriodicInterval() = %v, want 30s", got)
	}
}
