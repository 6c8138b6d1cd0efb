package service

import "testing"

func TestFromPort(t *testing.T) {
	cases := map[uint16]string{80: "http", 443: "https", 22: "ssh", 3306: "mysql"}
	for port, want := range cases {
		got, ok := FromPort(port)
		if !ok || got != want {
			t.Errorf("FromPort(%d) = %q, %v; want %q, true", port, got, ok, want)
		}
	}
}

func TestFromBannerHTTP(t *testing.T) {
	m, ok := FromBanner("HTTP/1.1 200 OK\r\nServer: nginx\r\n", 80)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Service != "http" {
		t.Errorf("expected service http, got %s", m.Service)
	}
	if m.Product != "nginx" {
		t.Errorf("expected product nginx, got %q", m.Product)
	}
}

func TestFromBannerSSH(t *testing.T) {
	m, ok := FromBanner("SSH-2.0-OpenSSH_8.2", 22)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Service != "ssh" {
		t.Errorf("expected service ssh, got %s", m.Service)
	}
	if m.Product != "OpenSSH" {
		t.Errorf("expected product OpenSSH, got %q", m.Product)
	}
	if m.Version != "8.2" {
		t.Errorf("expected version 8.2, got %q", m.Version)
	}
}

func TestIdentifyBannerTakesPrecedenceOverPort(t *testing.T) {
	m, ok := Identify(8080, "HTTP/1.1 200 OK")
	if !ok || m.Service != "http" {
		t.Fatalf("expected banner match to win, got %+v, %v", m, ok)
	}
}

func TestIdentifyFallsBackToPort(t *testing.T) {
	m, ok := Identify(80, "")
	if !ok || m.Service != "http" {
		t.Fatalf("expected port fallback to match http, got %+v, %v", m, ok)
	}
}

func TestIdentifyNoMatch(t *testing.T) {
	if _, ok := Identify(0, ""); ok {
		t.Fatal("expected no match for an unassigned port with no banner")
	}
}

func TestExtractVersionNumber(t *testing.T) {
	if v := extractVersionNumber("running version 1.2.3 on host"); v != "1.2.3" {
		t.Errorf("expected 1.2.3, got %q", v)
	}
	if v := extractVersionNumber("no digits here"); v != "" {
		t.Errorf("expected no match, got %q", v)
	}
}
