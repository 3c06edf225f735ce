// Package server implements devscan-bridge, a long running receiver that
// shares the devices it sees over HTTP.
//
// The bridge keeps a DeviceTable fed by the receiver callbacks and exposes
// it as JSON. Live changes are pushed to websocket clients on /events: each
// client first gets a "snapshot" event with the full table, then
// "announce", "expire" and "error" events as they happen.
//
// # Endpoints
//
//	GET /devices         all live entries
//	GET /devices/{uuid}  entries of one device, one per path
//	GET /events          websocket event stream
//	GET /metrics         Prometheus metrics
//	GET /healthz         status, version and counts
//
// # Discovery
//
// With Config.Advertise set the bridge registers a _devscan._tcp mDNS
// service whose TXT records carry the version and the interface filter.
// "devscan bridges" finds it with discovery.ScanForBridges.
//
// # Configuration
//
// When Config.ConfigPath is set the registry file is watched. Edits to the
// interface filter and to device nicknames apply without a restart.
package server
