package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"tc2diag/internal/common/runlog"
)

// tcpProbeTimeout bounds the raw connectivity probe.
const tcpProbeTimeout = 10 * time.Second

// RunDiagnostics reports why the directory server might be unreachable. It
// runs unconditionally after total authentication failure: TLS mode, CA
// certificate material, DNS resolution and raw TCP reachability.
func RunDiagnostics(cfg *Config, log *runlog.Log) {
	log.Infof("Running connectivity diagnostics for %s", cfg.Host)
	log.Infof("TLS mode: %s", ClassifyTLSMode(cfg.EffectivePort()))
	InspectCACert(cfg.CACertFile, log)
	ResolveHost(cfg.Host, log)
	TestTCPConnectivity(cfg.Host, cfg.EffectivePort(), log)
}

// ClassifyTLSMode names the TLS mode implied by the port number.
func ClassifyTLSMode(port int) string {
	if port == LDAPSPort {
		return "LDAPS (implicit TLS)"
	}
	return "LDAP (plain or STARTTLS)"
}

// InspectCACert checks that the configured CA certificate file exists, is
// readable and looks like PEM. No path configured means system roots.
func InspectCACert(path string, log *runlog.Log) {
	if path == "" {
		log.Infof("No CA certificate configured, system roots apply")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Errorf("CA certificate file not found: %s", path)
		} else if os.IsPermission(err) {
			log.Errorf("CA certificate file not readable (permission denied): %s", path)
		} else {
			log.Errorf("CA certificate file unreadable: %v", err)
		}
		return
	}
	if strings.Contains(string(data), "BEGIN CERTIFICATE") {
		log.Infof("CA certificate file format: PEM")
	} else {
		log.Warningf("CA certificate file %s does not look like PEM (no BEGIN CERTIFICATE marker)", path)
	}
}

// ResolveHost resolves A/AAAA records for host, falling back to the legacy
// host lookup when the primary resolution fails.
func ResolveHost(host string, log *runlog.Log) {
	log.Infof("Resolving hostname: %s", host)

	ctx, cancel := context.WithTimeout(context.Background(), tcpProbeTimeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err == nil && len(addrs) > 0 {
		ips := make([]string, len(addrs))
		for i, a := range addrs {
			ips[i] = a.IP.String()
		}
		log.Infof("DNS resolved to: %s", strings.Join(ips, ", "))
		return
	}

	// Legacy fallback path.
	hosts, lerr := net.LookupHost(host)
	if lerr == nil && len(hosts) > 0 {
		log.Infof("DNS resolved (legacy lookup) to: %s", strings.Join(hosts, ", "))
		return
	}
	if err == nil {
		err = lerr
	}
	log.Errorf("DNS resolution failed: %v", err)
}

// TestTCPConnectivity opens a raw TCP connection to host:port with a fixed
// 10 second timeout and reports the observed latency. Timeouts are reported
// distinctly from refused or otherwise failed connections.
func TestTCPConnectivity(host string, port int, log *runlog.Log) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	log.Infof("Testing TCP connectivity to %s (timeout %s)", addr, tcpProbeTimeout)

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, tcpProbeTimeout)
	latency := time.Since(start)

	if err == nil {
		conn.Close()
		log.Successf("TCP connection to %s succeeded in %s", addr, latency.Round(time.Millisecond))
		return
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Errorf("TCP connection to %s timed out after %s", addr, latency.Round(time.Millisecond))
	case errors.Is(err, syscall.ECONNREFUSED):
		log.Errorf("TCP connection to %s refused after %s", addr, latency.Round(time.Millisecond))
	default:
		log.Errorf("TCP connection to %s failed after %s: %v", addr, latency.Round(time.Millisecond), err)
	}
}
