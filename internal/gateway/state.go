package gateway

import "github.com/nerrad567/gray-logic-backplate/internal/backplate"

// DeviceState caches the latest reported device values so new
// observers can be brought up to date with a snapshot.
//
// It is confined to the event loop goroutine and needs no locking.
type DeviceState struct {
	weather *WeatherInfo
	battery *BatteryInfo
	wires   [backplate.WireCount]backplate.Tristate
}

// NewDeviceState returns an empty state; every wire starts Unknown.
func NewDeviceState() *DeviceState {
	return &DeviceState{}
}

// SetWeather records the latest weather sample.
func (s *DeviceState) SetWeather(temperature, humidity uint16) {
	s.weather = &WeatherInfo{Temperature: temperature, Humidity: humidity}
}

// SetBattery records the latest battery status.
func (s *DeviceState) SetBattery(charging bool, voltageMV uint16) {
	s.battery = &BatteryInfo{Charging: charging, VoltageMV: voltageMV}
}

// SetWire records a wire transition.
func (s *DeviceState) SetWire(wire backplate.Wire, connected bool) {
	if !wire.Valid() {
		return
	}
	if connected {
		s.wires[wire] = backplate.Asserted
	} else {
		s.wires[wire] = backplate.Deasserted
	}
}

// Snapshot assembles everything currently known into one event.
// Wires still in the Unknown state are left out rather than guessed.
func (s *DeviceState) Snapshot() EventMessage {
	msg := EventMessage{
		Weather: s.weather,
		Battery: s.battery,
	}
	for i := 0; i < backplate.WireCount; i++ {
		switch s.wires[i] {
		case backplate.Asserted:
			msg.WireChange = append(msg.WireChange, WireChange{Wire: backplate.Wire(i).String(), Connected: true})
		case backplate.Deasserted:
			msg.WireChange = append(msg.WireChange, WireChange{Wire: backplate.Wire(i).String(), Connected: false})
		}
	}
	return msg
}
