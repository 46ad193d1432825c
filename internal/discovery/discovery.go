package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	SERVICE_TYPE      = "_http._tcp"
	DOMAIN            = "local."
	INSTANCE_NAME     = "smart-air-monitor"
	APP_TXT_RECORD    = "app=smart-air-monitor"
	DISCOVERY_TIMEOUT = 5 * time.Second
)

// Instance is an API server found on the local network.
type Instance struct {
	Name     string
	Hostname string
	Port     int
	IPv4     []string
	Text     []string
}

func (instance Instance) URL() string {
	host := strings.TrimSuffix(instance.Hostname, ".")
	if len(instance.IPv4) > 0 {
		host = instance.IPv4[0]
	}

	return fmt.Sprintf("http://%s:%d%s", host, instance.Port, instance.path())
}

func (instance Instance) path() string {
	for _, record := range instance.Text {
		if value, ok := strings.CutPrefix(record, "path="); ok {
			return value
		}
	}

	return ""
}

// TextRecords builds the TXT payload announced alongside the service.
func TextRecords(version string) []string {
	return []string{APP_TXT_RECORD, "path=/api", "version=" + version}
}

// Announce registers the API over mDNS until ctx is cancelled, so sensor
// devices on the LAN can locate it without a configured address.
func Announce(ctx context.Context, logger *slog.Logger, port int, text []string) error {
	server, err := zeroconf.Register(INSTANCE_NAME, SERVICE_TYPE, DOMAIN, port, text, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	defer server.Shutdown()

	logger.Info("Announcing service over mDNS", "instance", INSTANCE_NAME, "type", SERVICE_TYPE, "port", port)

	<-ctx.Done()

	logger.Debug("mDNS announcement stopped")

	return nil
}

// Browse collects the API instances that answer within timeout.
func Browse(ctx context.Context, logger *slog.Logger, timeout time.Duration) ([]Instance, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resolver: %w", err)
	}

	if timeout <= 0 {
		timeout = DISCOVERY_TIMEOUT
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, SERVICE_TYPE, DOMAIN, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for services: %w", err)
	}

	var instances []Instance
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return instances, nil
			}
			if !isMonitor(entry.Text) {
				continue
			}

			instance := Instance{
				Name:     entry.Instance,
				Hostname: entry.HostName,
				Port:     entry.Port,
				Text:     entry.Text,
			}
			for _, ip := range entry.AddrIPv4 {
				instance.IPv4 = append(instance.IPv4, ip.String())
			}

			logger.Debug("Service discovered", "instance", instance.Name, "host", instance.Hostname, "port", instance.Port)
			instances = append(instances, instance)
		case <-ctx.Done():
			return instances, nil
		}
	}
}

func isMonitor(text []string) bool {
	for _, record := range text {
		if record == APP_TXT_RECORD {
			return true
		}
	}

	return false
}
