// Package service identifies what's listening on an open port, first from
// its banner (more accurate, carries a version when the service advertises
// one) and, failing that, from the well-known port number.
package service

import (
	"regexp"
	"strings"

	"github.com/vajra-scan/vajra/internal/model"
)

// Identify combines banner- and port-based detection: a banner match always
// wins since it can carry product/version data a bare port number can't.
func Identify(port uint16, banner string) (model.ServiceMatch, bool) {
	if banner != "" {
		if m, ok := FromBanner(banner, port); ok {
			return m, true
		}
	}
	if name, ok := FromPort(port); ok {
		return model.NewServiceMatch(name), true
	}
	return model.ServiceMatch{}, false
}

// FromBanner runs the ordered rule set against a banner's lowercased form.
// Rule order matters: more specific matches (explicit product names) are
// tried before looser substring checks so a banner like "OpenSSH" on a
// non-standard port is never shadowed by a generic rule.
func FromBanner(banner string, port uint16) (model.ServiceMatch, bool) {
	lower := strings.ToLower(banner)

	switch {
	case strings.HasPrefix(lower, "http/") || strings.Contains(lower, "server:"):
		service, product, version := extractHTTPInfo(lower, port)
		return build(service, product, version), true

	case strings.Contains(lower, "ssh-") || strings.HasPrefix(lower, "ssh"):
		product, version := extractSSHInfo(banner)
		return build("ssh", product, version), true

	case strings.HasPrefix(lower, "220") && strings.Contains(lower, "ftp"):
		product, version := extractFTPInfo(lower)
		return build("ftp", product, version), true

	case strings.HasPrefix(lower, "220") && (strings.Contains(lower, "smtp") || strings.Contains(lower, "mail") || strings.Contains(lower, "esmtp")):
		product, version := extractSMTPInfo(lower)
		return build("smtp", product, version), true

	case strings.HasPrefix(lower, "+ok") || strings.Contains(lower, "pop3"):
		return build("pop3", "", extractVersionNumber(lower)), true

	case strings.HasPrefix(lower, "* ok") || strings.Contains(lower, "imap"):
		product, version := extractIMAPInfo(lower)
		return build("imap", product, version), true

	case strings.Contains(lower, "mysql") || (port == 3306 && strings.ContainsRune(banner, 0)):
		return build("mysql", "", extractVersionNumber(banner)), true

	case strings.Contains(lower, "postgresql") || isAllZero(banner, 4):
		return build("postgresql", "", extractPostgresVersion(lower)), true

	case strings.Contains(lower, "redis") || strings.HasPrefix(banner, "+"):
		return build("redis", "", extractRedisVersion(lower)), true

	case strings.Contains(lower, "mongodb") || port == 27017:
		return build("mongodb", "", extractMongoVersion(lower)), true

	case strings.Contains(lower, "elasticsearch") || port == 9200:
		return build("elasticsearch", "", extractElasticsearchVersion(lower)), true

	case strings.Contains(lower, "telnet") || strings.Contains(lower, "login:"):
		return build("telnet", "", ""), true

	case strings.Contains(lower, "rfb") || strings.Contains(lower, "vnc"):
		return build("vnc", "", extractVNCVersion(lower)), true

	case isRDPSignature(banner):
		return build("rdp", "", ""), true

	case strings.Contains(lower, "docker") || port == 2375 || port == 2376:
		return build("docker", "", ""), true

	case strings.Contains(lower, "kubernetes") || port == 6443:
		return build("kubernetes", "", ""), true
	}

	return model.ServiceMatch{}, false
}

func build(service, product, version string) model.ServiceMatch {
	m := model.NewServiceMatch(service)
	if product != "" {
		m = m.WithProduct(product)
	}
	if version != "" {
		m = m.WithVersion(version)
	}
	return m
}

func extractHTTPInfo(lower string, port uint16) (service, product, version string) {
	service = "http"
	if port == 443 || strings.Contains(lower, "ssl") || strings.Contains(lower, "tls") {
		service = "https"
	}

	if idx := strings.Index(lower, "server:"); idx >= 0 {
		line := lower[idx:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			val := strings.TrimSpace(line[len("server:"):end])
			if parts := strings.SplitN(val, "/", 2); len(parts) == 2 {
				return service, strings.TrimSpace(parts[0]), firstField(parts[1])
			} else if val != "" {
				return service, val, ""
			}
		}
	}

	switch {
	case strings.Contains(lower, "nginx"):
		return service, "nginx", extractVersionNumber(lower)
	case strings.Contains(lower, "apache"):
		return service, "Apache", extractVersionNumber(lower)
	case strings.Contains(lower, "iis") || strings.Contains(lower, "microsoft"):
		return service, "IIS", extractVersionNumber(lower)
	}
	return service, "", ""
}

// extractSSHInfo parses the SSH-<proto>-<product>_<version> identification
// string. It works on the original-case banner (only using a lowercased
// copy to locate the case-insensitive "ssh-" marker and line boundary) so a
// product name like "OpenSSH" isn't flattened to "openssh".
func extractSSHInfo(banner string) (product, version string) {
	lower := strings.ToLower(banner)
	idx := strings.Index(lower, "ssh-")
	if idx < 0 {
		return "", ""
	}
	rest := banner[idx:]
	lowerRest := lower[idx:]
	if end := strings.IndexAny(lowerRest, "\n\r "); end >= 0 {
		rest = rest[:end]
	}
	parts := strings.SplitN(rest, "-", 3)
	if len(parts) < 3 {
		return "", ""
	}
	sub := strings.SplitN(parts[2], "_", 2)
	product = sub[0]
	if len(sub) > 1 {
		version = sub[1]
	}
	return product, version
}

func extractFTPInfo(lower string) (product, version string) {
	return extractDaemonInfo(lower, "proftpd", "vsftpd", "pure-ftpd", "filezilla")
}

func extractSMTPInfo(lower string) (product, version string) {
	return extractDaemonInfo(lower, "postfix", "sendmail", "exim", "microsoft", "exchange")
}

// extractDaemonInfo finds the first whitespace-delimited field matching any
// of names and takes the following field as its version, falling back to a
// generic version scan over the whole banner.
func extractDaemonInfo(lower string, names ...string) (product, version string) {
	fields := strings.Fields(lower)
	for i, field := range fields {
		for _, name := range names {
			if strings.Contains(field, name) {
				if i+1 < len(fields) {
					return field, fields[i+1]
				}
				return field, extractVersionNumber(lower)
			}
		}
	}
	return "", extractVersionNumber(lower)
}

func extractIMAPInfo(lower string) (product, version string) {
	switch {
	case strings.Contains(lower, "dovecot"):
		return "Dovecot", extractVersionNumber(lower)
	case strings.Contains(lower, "cyrus"):
		return "Cyrus", extractVersionNumber(lower)
	}
	return "", extractVersionNumber(lower)
}

func extractPostgresVersion(lower string) string {
	if idx := strings.Index(lower, "postgresql"); idx >= 0 {
		fields := strings.Fields(lower[idx:])
		if len(fields) >= 2 {
			return fields[1]
		}
	}
	return extractVersionNumber(lower)
}

func extractRedisVersion(lower string) string {
	if idx := strings.Index(lower, "redis"); idx >= 0 {
		rest := lower[idx:]
		if vIdx := strings.Index(rest, "v="); vIdx >= 0 {
			tail := rest[vIdx+2:]
			if end := strings.IndexAny(tail, " \n\r"); end >= 0 {
				return tail[:end]
			}
			return tail
		}
	}
	return extractVersionNumber(lower)
}

func extractMongoVersion(lower string) string {
	if idx := strings.Index(lower, "mongodb"); idx >= 0 {
		fields := strings.Fields(lower[idx:])
		if len(fields) >= 2 {
			return fields[1]
		}
	}
	return extractVersionNumber(lower)
}

func extractElasticsearchVersion(lower string) string {
	// Typically embedded in a JSON response: "version":{"number":"7.10.0"}.
	if idx := strings.Index(lower, `"number"`); idx >= 0 {
		rest := lower[idx+len(`"number"`):]
		if start := strings.IndexByte(rest, '"'); start >= 0 {
			rest = rest[start+1:]
			if end := strings.IndexByte(rest, '"'); end >= 0 {
				return rest[:end]
			}
		}
	}
	return extractVersionNumber(lower)
}

func extractVNCVersion(lower string) string {
	if idx := strings.Index(lower, "rfb"); idx >= 0 {
		fields := strings.Fields(lower[idx:])
		if len(fields) >= 2 {
			return fields[1]
		}
	}
	return ""
}

var versionRe = regexp.MustCompile(`(?:v|version)?\s*(\d+\.\d+(?:\.\d+)?(?:\.\d+)?)`)

// extractVersionNumber is the fallback extractor every specific rule above
// defers to: a bare dotted-number scan over the raw text.
func extractVersionNumber(text string) string {
	m := versionRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isAllZero(s string, n int) bool {
	if len(s) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] != 0 {
			return false
		}
	}
	return true
}

var rdpSignature = []byte{0x03, 0x00, 0x00, 0x13, 0x0e, 0xe0, 0x00, 0x00, 0x00, 0x00, 0x00}

func isRDPSignature(banner string) bool {
	if len(banner) < len(rdpSignature) {
		return false
	}
	return banner[:len(rdpSignature)] == string(rdpSignature)
}
