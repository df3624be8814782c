package gateway

import (
	"encoding/json"
	"testing"

	"github.com/nerrad567/gray-logic-backplate/internal/backplate"
)

func TestFahrenheitMilli(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want int
	}{
		{"freezing", 0, 32000},
		{"one degree", 100, 33800},
		{"room temperature", 2000, 68000},
		{"warm", 2500, 77000},
		{"body temperature", 3700, 98600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fahrenheitMilli(tt.raw); got != tt.want {
				t.Errorf("fahrenheitMilli(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEventShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  EventMessage
		want string
	}{
		{
			"weather only",
			weatherEvent(200, 50),
			`{"weather":{"temperature":200,"humidity":50}}`,
		},
		{
			"battery charging",
			batteryEvent(true, 4000),
			`{"battery":{"charging":true,"voltage_mv":4000}}`,
		},
		{
			"battery discharging",
			batteryEvent(false, 3700),
			`{"battery":{"charging":false,"voltage_mv":3700}}`,
		},
		{
			"wire connected",
			wireChangeEvent(backplate.WireY1, true),
			`{"wire_change":[{"wire":"y1","connected":true}]}`,
		},
		{
			"wire disconnected",
			wireChangeEvent(backplate.WireOB, false),
			`{"wire_change":[{"wire":"ob","connected":false}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("event = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestControlCommandDecode(t *testing.T) {
	var cmd ControlCommand
	payload := `{"set_wire":[{"wire":"y1","connect":true},{"wire":"g","connect":false}]}`
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(cmd.SetWire) != 2 {
		t.Fatalf("SetWire = %d entries, want 2", len(cmd.SetWire))
	}
	if cmd.SetWire[0].Wire != "y1" || !cmd.SetWire[0].Connect {
		t.Errorf("entry[0] = %+v", cmd.SetWire[0])
	}
	if cmd.SetWire[1].Wire != "g" || cmd.SetWire[1].Connect {
		t.Errorf("entry[1] = %+v", cmd.SetWire[1])
	}
}

func TestDeviceStateSnapshot(t *testing.T) {
	state := NewDeviceState()

	// Empty state gives an empty snapshot: no guessed wire values.
	empty, err := json.Marshal(state.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(empty) != "{}" {
		t.Errorf("empty snapshot = %s, want {}", empty)
	}

	state.SetWeather(2000, 45)
	state.SetBattery(true, 4100)
	state.SetWire(backplate.WireY1, true)
	state.SetWire(backplate.WireG, false)

	snap := state.Snapshot()
	if snap.Weather == nil || snap.Weather.Temperature != 2000 {
		t.Errorf("weather = %+v", snap.Weather)
	}
	if snap.Battery == nil || !snap.Battery.Charging || snap.Battery.VoltageMV != 4100 {
		t.Errorf("battery = %+v", snap.Battery)
	}
	if len(snap.WireChange) != 2 {
		t.Fatalf("wire entries = %d, want 2", len(snap.WireChange))
	}
	// Entries come out in wire index order.
	if snap.WireChange[0].Wire != "y1" || !snap.WireChange[0].Connected {
		t.Errorf("wire[0] = %+v", snap.WireChange[0])
	}
	if snap.WireChange[1].Wire != "g" || snap.WireChange[1].Connected {
		t.Errorf("wire[1] = %+v", snap.WireChange[1])
	}

	// Later samples replace earlier ones.
	state.SetWeather(2100, 47)
	if got := state.Snapshot().Weather.Temperature; got != 2100 {
		t.Errorf("temperature after update = %d, want 2100", got)
	}
}
