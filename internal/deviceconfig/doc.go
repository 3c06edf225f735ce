// Package deviceconfig changes the network settings of announced devices
// over the configure multicast group.
//
// Requests are JSON-RPC "configure" calls addressed to a device uuid. They
// go out on every adapter, or on one adapter selected by its local
// address, and the client waits up to three seconds for a response with
// the same id:
//
//	req, err := deviceconfig.SetInterfaceConfiguration(uuid, "eth0", "manual", "172.19.10.5", "255.255.0.0")
//	if err != nil {
//	    return err
//	}
//	client, err := deviceconfig.NewClient()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	result, err := client.Configure(ctx, "", req)
//
// ExecuteRequest is the low level call: it returns the raw response text,
// or "" when nothing matched before the deadline.
//
// Settings are validated before sending. Manual addresses in the loopback,
// link-local, multicast and internal FireWire ranges are refused.
//
// A RollbackManager snapshots the announced settings before a change,
// waits for the device to announce the new ones and restores the snapshot
// if it does not.
package deviceconfig
