// Package gateway is the bridge between one backplate device and the
// message bus.
//
// The design centres on a single event loop goroutine. Device frames,
// control requests, observer notices, and the telemetry timer all feed
// that loop, and every device callback fires synchronously inside it.
// Consequences that matter:
//
//   - Control requests are answered strictly in arrival order, one
//     reply per request, which is the only correlation the control
//     channel has.
//   - Nothing is published until the device reports reset complete;
//     until then telemetry only warms the snapshot state.
//   - The telemetry scheduler re-arms from the last request sent, so
//     refreshes never pile up behind a slow device.
//   - When several sources are ready at once the loop drains them in a
//     fixed order: timer, device frames, control requests, notices.
//
// The gateway holds no durable state. A restart begins with a device
// reset and every wire back at Unknown.
package gateway
