// Package protocol holds the wire formats of device scanning: announce
// telegrams multicast by devices and the JSON-RPC configure exchange.
//
// # Announcements
//
// Devices periodically send a JSON-RPC notification to the announce group:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "announce",
//	  "params": {
//	    "device": {"uuid": "0009E5001C49", "name": "...", "type": "MX440A", ...},
//	    "netSettings": {"interface": {"name": "eth0", "ipv4": [{"address": ..., "netmask": ...}]}},
//	    "router": {"uuid": "..."},
//	    "services": [{"type": "http", "port": 80}],
//	    "expiration": 15
//	  }
//	}
//
// Only method, params.device.uuid, params.netSettings.interface.name and
// params.expiration are mandatory. The monitor validates payloads through
// Tree lookups so that unknown or oddly typed members never stop a valid
// announcement; DecodeAnnouncement gives a typed view for display.
//
// # Configuration
//
// Configure requests go to the configure group and carry a correlation id
// from GenerateID. Devices answer on the same group with either a result
// or an error member; ParseResponse separates the two.
//
// # Thread Safety
//
// All functions are stateless. A Tree is immutable after Parse and may be
// shared between goroutines.
package protocol
