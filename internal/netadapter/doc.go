// Package netadapter keeps a snapshot of the host's network adapters.
//
// Only adapters that are up, broadcast capable and not loopback are kept.
// For each one the list records its name, index, hardware address, FireWire
// GUID (if it is a FireWire link) and every IPv4 and IPv6 address.
//
//	adapters := netadapter.NewList()
//	for _, a := range adapters.Array() {
//	    fmt.Println(a)
//	}
//
// The snapshot is replaced as a whole by Update and guarded by a RWMutex,
// so packet handlers can look up interfaces by index while another
// goroutine refreshes the list. Returned adapters are copies.
//
// The package also carries the address rules used when configuring devices
// (IsValidManualIPv4Address, IsValidIPv4Netmask) and a reader for the
// default IPv4 gateway.
package netadapter
