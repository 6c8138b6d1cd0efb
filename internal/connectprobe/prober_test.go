package connectprobe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/vajra-scan/vajra/internal/model"
)

func targetFor(t *testing.T, addr net.Addr) model.Target {
	t.Helper()
	tcpAddr := addr.(*net.TCPAddr)
	return model.NewTarget(tcpAddr.IP, uint16(tcpAddr.Port))
}

func TestProbeOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("220 test banner\r\n"))
	}()

	p := New().WithTimeout(500 * time.Millisecond)
	result := p.Probe(context.Background(), targetFor(t, ln.Addr()))

	if !result.IsOpen() {
		t.Fatalf("expected Open, got %s", result.State)
	}
}

func TestProbeClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close() // nothing listening now; connection should be refused

	p := New().WithTimeout(500 * time.Millisecond)
	target := model.NewTarget(addr.IP, uint16(addr.Port))
	result := p.Probe(context.Background(), target)

	if !result.IsClosed() {
		t.Fatalf("expected Closed, got %s", result.State)
	}
}

func TestProbeBannerOnlyGrabbedForKnownPorts(t *testing.T) {
	if bannerPorts[12345] {
		t.Fatal("12345 should not be in the banner-eligible port set")
	}
	if !bannerPorts[80] {
		t.Fatal("80 should be in the banner-eligible port set")
	}
}
