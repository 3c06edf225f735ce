package server

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/logging"
	"github.com/muurk/devscan/internal/version"
	"go.uber.org/zap"
)

// advertiser publishes the bridge as a _devscan._tcp mDNS service
type advertiser struct {
	server *zeroconf.Server
}

// bridgeTXT builds the TXT records read back by discovery.ScanForBridges
func bridgeTXT(filter []string) []string {
	txt := []string{"version=" + version.Version}
	if len(filter) > 0 {
		txt = append(txt, "interfaces="+strings.Join(filter, ","))
	}
	return txt
}

// instanceName returns name, or the host name when name is empty
func instanceName(name string) string {
	if name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "devscan-bridge"
	}
	return host
}

// advertise registers the service on every multicast capable interface
func advertise(instance string, port int, filter []string) (*advertiser, error) {
	name := instanceName(instance)
	server, err := zeroconf.Register(
		name,
		discovery.BridgeServiceType,
		discovery.ServiceDomain,
		port,
		bridgeTXT(filter),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", discovery.BridgeServiceType, err)
	}

	logging.Info("Advertising bridge over mDNS",
		zap.String("instance", name),
		zap.String("service", discovery.BridgeServiceType),
		zap.Int("port", port),
	)
	return &advertiser{server: server}, nil
}

// updateFilter republishes the interfaces TXT record
func (a *advertiser) updateFilter(filter []string) {
	if a == nil || a.server == nil {
		return
	}
	a.server.SetText(bridgeTXT(filter))
}

func (a *advertiser) shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}

// listenPort extracts the TCP port of a listener address
func listenPort(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
