package capture

import (
	"net"
	"testing"
	"time"
)

func TestPendingTableRegisterForget(t *testing.T) {
	table := NewPendingTable()
	key := NewKey(net.ParseIP("127.0.0.1"), 80, 12345, 1000)

	ch := table.Register(key)
	if table.Len() != 1 {
		t.Fatalf("expected 1 pending entry, got %d", table.Len())
	}

	table.Forget(key)
	if table.Len() != 0 {
		t.Fatalf("expected 0 pending entries after Forget, got %d", table.Len())
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("forgotten entry should not deliver a response")
		}
	default:
	}
}

func TestPendingTableMultipleProbesSameTarget(t *testing.T) {
	table := NewPendingTable()
	ip := net.ParseIP("192.168.1.1")

	table.Register(NewKey(ip, 80, 50000, 1000))
	table.Register(NewKey(ip, 443, 50001, 2000))
	table.Register(NewKey(ip, 22, 50002, 3000))

	if table.Len() != 3 {
		t.Fatalf("expected 3 pending entries, got %d", table.Len())
	}
}

func TestPendingTableDeliverMatchesAllSharingTuple(t *testing.T) {
	table := NewPendingTable()
	ip := net.ParseIP("10.0.0.5")

	// Two distinct in-flight probes to the same (dst_ip, dst_port,
	// src_port) but different sequence numbers — the demux loop cannot see
	// the ACK number in the response, so both must receive the reply.
	ch1 := table.Register(Key{DstIP: ip.String(), DstPort: 80, SrcPort: 40000, Seq: 1})
	ch2 := table.Register(Key{DstIP: ip.String(), DstPort: 80, SrcPort: 40000, Seq: 2})

	n := table.Deliver(ip, 80, 40000, Response{SYN: true, ACK: true})
	if n != 2 {
		t.Fatalf("expected both pending probes to be matched, got %d", n)
	}
	if table.Len() != 0 {
		t.Fatalf("matched entries should be removed, %d remain", table.Len())
	}

	select {
	case r := <-ch1:
		if !r.SYN || !r.ACK {
			t.Error("ch1 did not receive the SYN-ACK response")
		}
	case <-time.After(time.Second):
		t.Error("ch1 never received a response")
	}
	select {
	case r := <-ch2:
		if !r.SYN || !r.ACK {
			t.Error("ch2 did not receive the SYN-ACK response")
		}
	case <-time.After(time.Second):
		t.Error("ch2 never received a response")
	}
}

func TestPendingTableSweepExpiresOldEntries(t *testing.T) {
	table := NewPendingTable()
	key := NewKey(net.ParseIP("127.0.0.1"), 80, 12345, 1)
	table.Register(key)

	time.Sleep(10 * time.Millisecond)
	n := table.Sweep(5 * time.Millisecond)
	if n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if table.Len() != 0 {
		t.Fatalf("expected table to be empty after sweep, got %d", table.Len())
	}
}
