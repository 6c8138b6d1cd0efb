package targets

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePorts expands a comma-separated spec like "80,443,1000-1005" into a
// slice of ports, in the order given. Every scan in this engine is TCP
// (UDP probing isn't implemented — see internal/synprobe and
// internal/connectprobe), so unlike nmap-style specs there's no T:/U:
// protocol prefix to parse; a spec is just ports.
func ParsePorts(spec string) ([]uint16, error) {
	var ports []uint16
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.SplitN(part, "-", 2)
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("targets: invalid port range %q", part)
			}
			start, err1 := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			end, err2 := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("targets: invalid port numbers in %q", part)
			}
			if start > end || start < 0 || end > 65535 {
				return nil, fmt.Errorf("targets: invalid port range bounds %d-%d", start, end)
			}
			for p := start; p <= end; p++ {
				ports = append(ports, uint16(p))
			}
			continue
		}

		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("targets: invalid port %q", part)
		}
		if p < 0 || p > 65535 {
			return nil, fmt.Errorf("targets: port out of range %d", p)
		}
		ports = append(ports, uint16(p))
	}

	if len(ports) == 0 {
		return nil, fmt.Errorf("targets: no ports specified")
	}
	return ports, nil
}
