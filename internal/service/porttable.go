package service

// portTable maps well-known ports to a service name, mirroring IANA
// assignments and the common alternates nmap also recognizes.
var portTable = map[uint16]string{
	20: "ftp-data", 21: "ftp", 990: "ftps",
	22: "ssh",
	23: "telnet",
	25: "smtp", 465: "smtps", 587: "submission",
	53: "domain",
	80: "http", 443: "https", 8000: "http-alt", 8080: "http-proxy",
	8443: "https-alt", 8888: "http-alt", 9000: "http-alt", 3000: "http-alt", 5000: "http-alt",
	109: "pop2", 110: "pop3", 995: "pop3s", 106: "pop3pw",
	143: "imap", 220: "imap3", 993: "imaps",
	111: "rpcbind", 135: "msrpc", 139: "netbios-ssn", 445: "microsoft-ds",
	3389: "rdp", 5985: "wsman", 5986: "wsmans",
	161: "snmp", 162: "snmptrap",
	389: "ldap", 636: "ldaps",
	123: "ntp",
	119: "nntp",
	179: "bgp",
	79:  "finger",
	88:  "kerberos",
	517: "talk", 518: "ntalk", 194: "irc", 6667: "irc", 6697: "ircs",
	9418: "git",
	514:  "syslog",
	873:  "rsync",
	2049: "nfs",
	1080: "socks",
	3128: "squid-http",
	1433: "mssql", 1521: "oracle", 3306: "mysql", 5432: "postgresql",
	27017: "mongodb", 6379: "redis", 9200: "elasticsearch", 11211: "memcached",
	5900: "vnc", 5901: "vnc-1", 5902: "vnc-2",
	1723: "pptp", 1194: "openvpn", 500: "isakmp", 4500: "ipsec-nat-t",
	2375: "docker", 2376: "docker-tls", 6443: "kubernetes", 10250: "kubelet",
	5672: "amqp", 15672: "rabbitmq", 1883: "mqtt", 8883: "mqtts",
	9090: "prometheus",
	1000: "cadlock", 2000: "cisco-sccp",
}

// FromPort returns the well-known service for port, if any.
func FromPort(port uint16) (string, bool) {
	name, ok := portTable[port]
	return name, ok
}
