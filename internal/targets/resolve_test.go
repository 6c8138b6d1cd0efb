package targets

import (
	"context"
	"os"
	"testing"
)

func TestResolveIPsSingleAddress(t *testing.T) {
	ips, err := ResolveIPs(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatal(err)
	}
	if len(ips) != 1 || ips[0].String() != "8.8.8.8" {
		t.Fatalf("got %v", ips)
	}
}

func TestResolveIPsCIDR(t *testing.T) {
	ips, err := ResolveIPs(context.Background(), "192.168.1.0/30")
	if err != nil {
		t.Fatal(err)
	}
	// /30 has 4 addresses; network and broadcast excluded leaves .1 and .2.
	want := []string{"192.168.1.1", "192.168.1.2"}
	if len(ips) != len(want) {
		t.Fatalf("got %v, want %v", ips, want)
	}
	for i, w := range want {
		if ips[i].String() != w {
			t.Errorf("ips[%d] = %s, want %s", i, ips[i], w)
		}
	}
}

func TestResolveIPsRange(t *testing.T) {
	ips, err := ResolveIPs(context.Background(), "192.168.1.1-192.168.1.3")
	if err != nil {
		t.Fatal(err)
	}
	if len(ips) != 3 {
		t.Fatalf("got %d ips, want 3", len(ips))
	}
}

func TestResolveIPsDeduplicates(t *testing.T) {
	ips, err := ResolveIPs(context.Background(), "10.0.0.1,10.0.0.1,10.0.0.2")
	if err != nil {
		t.Fatal(err)
	}
	if len(ips) != 2 {
		t.Fatalf("got %v, want 2 unique addresses", ips)
	}
}

func TestResolveIPsLargeCIDRRejected(t *testing.T) {
	os.Unsetenv("VAJRA_ALLOW_LARGE_CIDR")
	if _, err := ResolveIPs(context.Background(), "10.0.0.0/16"); err == nil {
		t.Fatal("expected /16 to be rejected by default")
	}
}

func TestResolveIPsLargeCIDRAllowedWithEnv(t *testing.T) {
	os.Setenv("VAJRA_ALLOW_LARGE_CIDR", "1")
	defer os.Unsetenv("VAJRA_ALLOW_LARGE_CIDR")
	if _, err := ResolveIPs(context.Background(), "10.0.0.0/16"); err != nil {
		t.Fatalf("expected /16 to be allowed, got %v", err)
	}
}

func TestResolveIPsEmptySpec(t *testing.T) {
	if _, err := ResolveIPs(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty spec")
	}
}

func TestExpandTargetsHostMajorOrder(t *testing.T) {
	targets, err := ExpandTargets(context.Background(), "10.0.0.1,10.0.0.2", []uint16{80, 443})
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 4 {
		t.Fatalf("got %d targets, want 4", len(targets))
	}
	if targets[0].IP.String() != "10.0.0.1" || targets[0].Port != 80 {
		t.Errorf("targets[0] = %+v", targets[0])
	}
	if targets[1].IP.String() != "10.0.0.1" || targets[1].Port != 443 {
		t.Errorf("targets[1] = %+v", targets[1])
	}
	if targets[2].IP.String() != "10.0.0.2" || targets[2].Port != 80 {
		t.Errorf("targets[2] = %+v", targets[2])
	}
}
