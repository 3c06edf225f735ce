// Package metrics holds the Prometheus collectors shared by the receiver,
// the configure client and the bridge. Collectors register with the
// default registry on package init; devscan-bridge serves them on
// /metrics through Handler.
package metrics
