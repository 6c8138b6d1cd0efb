// Package targets expands the CLI's target and port specifications into
// concrete model.Target values.
package targets

import (
	"context"
	"net"
	"os"
	"strings"

	"github.com/vajra-scan/vajra/internal/model"
	"github.com/vajra-scan/vajra/internal/scanerr"
)

// maxCIDRHosts is the default cap on how many addresses a single CIDR token
// may expand to. A scan invoked with "10.0.0.0/8" by typo shouldn't silently
// queue sixteen million probes; VAJRA_ALLOW_LARGE_CIDR=1 lifts the cap for
// operators who mean it.
const maxCIDRHosts = 4096

// ResolveIPs expands a comma-separated target spec into a deduplicated list
// of IPv4 addresses. Each comma-separated token is one of:
//
//	single IPv4 address: "1.2.3.4"
//	CIDR block:          "192.168.1.0/24"
//	dashed range:        "192.168.1.1-192.168.1.10"
//	hostname:            "example.com"
//
// Hostnames are resolved last, as a single batch, via the resolver's
// LookupIP so cancellation and DNS timeouts flow through ctx.
func ResolveIPs(ctx context.Context, spec string) ([]net.IP, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, scanerr.New(scanerr.KindInvalidTarget, "no targets specified")
	}

	var ips []net.IP
	seen := make(map[string]bool)
	add := func(ip net.IP) {
		ip = ip.To4()
		if ip == nil {
			return
		}
		key := ip.String()
		if seen[key] {
			return
		}
		seen[key] = true
		ips = append(ips, ip)
	}

	var hostnames []string

	for _, token := range strings.Split(spec, ",") {
		t := strings.TrimSpace(token)
		if t == "" {
			continue
		}

		if strings.Contains(t, "/") {
			expanded, err := expandCIDR(t)
			if err != nil {
				return nil, err
			}
			for _, ip := range expanded {
				add(ip)
			}
			continue
		}

		if strings.Contains(t, "-") {
			expanded, ok := expandRange(t)
			if ok {
				for _, ip := range expanded {
					add(ip)
				}
				continue
			}
		}

		if ip := net.ParseIP(t); ip != nil {
			add(ip)
			continue
		}

		hostnames = append(hostnames, t)
	}

	if len(hostnames) > 0 {
		resolved, err := resolveHostnames(ctx, hostnames)
		if err != nil {
			return nil, err
		}
		for _, ip := range resolved {
			add(ip)
		}
	}

	if len(ips) == 0 {
		return nil, scanerr.New(scanerr.KindInvalidTarget, "no valid IPv4 addresses found in targets")
	}
	return ips, nil
}

// ExpandTargets resolves spec's hosts and pairs every resolved IP with every
// port in ports, in host-major order (all ports for one host before moving
// to the next), the iteration order the orchestrator's job queue expects.
func ExpandTargets(ctx context.Context, spec string, ports []uint16) ([]model.Target, error) {
	ips, err := ResolveIPs(ctx, spec)
	if err != nil {
		return nil, err
	}
	targets := make([]model.Target, 0, len(ips)*len(ports))
	for _, ip := range ips {
		for _, port := range ports {
			targets = append(targets, model.NewTarget(ip, port))
		}
	}
	return targets, nil
}

func allowLargeCIDR() bool {
	return os.Getenv("VAJRA_ALLOW_LARGE_CIDR") == "1"
}

func expandCIDR(token string) ([]net.IP, error) {
	ip, ipNet, err := net.ParseCIDR(token)
	if err != nil {
		return nil, scanerr.Wrap(scanerr.KindInvalidTarget, "invalid CIDR "+token, err)
	}
	if ip.To4() == nil {
		return nil, scanerr.New(scanerr.KindInvalidTarget, "only IPv4 CIDR blocks are supported: "+token)
	}

	ones, bits := ipNet.Mask.Size()
	hostBits := bits - ones
	var hostCount uint64 = 1
	if hostBits > 0 {
		hostCount = uint64(1) << uint(hostBits)
	}
	if hostCount > maxCIDRHosts && !allowLargeCIDR() {
		return nil, scanerr.New(scanerr.KindInvalidTarget,
			"CIDR "+token+" expands beyond the allowed limit; set VAJRA_ALLOW_LARGE_CIDR=1 to override")
	}

	base := ipNet.IP.To4()
	start := ipToUint32(base)
	end := start + uint32(hostCount) - 1

	// Exclude network and broadcast addresses for blocks with host bits,
	// matching ipnet's hosts() semantics in the reference implementation.
	first, last := start, end
	if hostBits >= 2 {
		first++
		last--
	}

	ips := make([]net.IP, 0, last-first+1)
	for v := first; v <= last; v++ {
		ips = append(ips, uint32ToIP(v))
		if v == last {
			break
		}
	}
	return ips, nil
}

func expandRange(token string) ([]net.IP, bool) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 {
		return nil, false
	}
	start := net.ParseIP(strings.TrimSpace(parts[0]))
	end := net.ParseIP(strings.TrimSpace(parts[1]))
	if start == nil || end == nil || start.To4() == nil || end.To4() == nil {
		return nil, false
	}

	startN := ipToUint32(start.To4())
	endN := ipToUint32(end.To4())
	if startN > endN {
		return nil, false
	}

	ips := make([]net.IP, 0, endN-startN+1)
	for v := startN; ; v++ {
		ips = append(ips, uint32ToIP(v))
		if v == endN {
			break
		}
	}
	return ips, true
}

func resolveHostnames(ctx context.Context, hostnames []string) ([]net.IP, error) {
	var resolver net.Resolver
	var ips []net.IP
	for _, host := range hostnames {
		addrs, err := resolver.LookupIP(ctx, "ip4", host)
		if err != nil {
			// A single bad hostname shouldn't fail the whole batch; the
			// caller sees an empty-results error only if nothing resolves.
			continue
		}
		ips = append(ips, addrs...)
	}
	return ips, nil
}

func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
