package gateway

import "github.com/nerrad567/gray-logic-backplate/internal/backplate"

// fahrenheitMilli converts the device's raw temperature units to
// millidegrees Fahrenheit for the diagnostic log line. The raw unit is
// a hundredth of a degree Celsius, so F*1000 = raw*90/5 + 32000.
func fahrenheitMilli(temperature uint16) int {
	return int(temperature)*90/5 + 32000
}

// weatherEvent builds the event for one weather sample.
func weatherEvent(temperature, humidity uint16) EventMessage {
	return EventMessage{
		Weather: &WeatherInfo{Temperature: temperature, Humidity: humidity},
	}
}

// batteryEvent builds the event for one battery status report.
func batteryEvent(charging bool, voltageMV uint16) EventMessage {
	return EventMessage{
		Battery: &BatteryInfo{Charging: charging, VoltageMV: voltageMV},
	}
}

// wireChangeEvent builds the event for one wire transition.
func wireChangeEvent(wire backplate.Wire, connected bool) EventMessage {
	return EventMessage{
		WireChange: []WireChange{{Wire: wire.String(), Connected: connected}},
	}
}
