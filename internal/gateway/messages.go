package gateway

// WireSetRequest asks for one wire to be connected or disconnected.
type WireSetRequest struct {
	Wire    string `json:"wire"`
	Connect bool   `json:"connect"`
}

// ControlCommand is the JSON body of a control request.
//
// Unknown top-level keys are ignored so the command vocabulary can
// grow without breaking older gateways.
type ControlCommand struct {
	SetWire []WireSetRequest `json:"set_wire"`
}

// ControlOutcome is the JSON reply to a ControlCommand. Each element
// reports the outcome of the same-index WireSetRequest.
type ControlOutcome struct {
	SetWireSuccess []bool `json:"set_wire_success"`
}

// WeatherInfo is a raw temperature and humidity sample from the device.
type WeatherInfo struct {
	Temperature uint16 `json:"temperature"`
	Humidity    uint16 `json:"humidity"`
}

// BatteryInfo is the device's battery status.
type BatteryInfo struct {
	Charging  bool   `json:"charging"`
	VoltageMV uint16 `json:"voltage_mv"`
}

// WireChange reports one wire transition.
type WireChange struct {
	Wire      string `json:"wire"`
	Connected bool   `json:"connected"`
}

// EventMessage is the JSON body published on the event channel.
// Absent sections are omitted; a snapshot carries all known sections.
type EventMessage struct {
	Weather    *WeatherInfo `json:"weather,omitempty"`
	Battery    *BatteryInfo `json:"battery,omitempty"`
	WireChange []WireChange `json:"wire_change,omitempty"`
}
