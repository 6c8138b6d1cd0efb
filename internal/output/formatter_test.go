package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestCSVFormatterHeaderAndRowOrder(t *testing.T) {
	var buf bytes.Buffer
	f := NewCSVFormatter(&buf)
	f.Write(&Result{
		Event: "OPEN", IP: "10.0.0.1", Port: 22,
		Service: "ssh", Product: "OpenSSH", Version: "8.2",
		Banner: "SSH-2.0-OpenSSH_8.2\r\n", RTTMillis: 1.5,
	})
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "ip,port,state,service,product,version,banner,rtt_ms" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "10.0.0.1,22,open,ssh,OpenSSH,8.2,") {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if strings.Contains(lines[1], "\n") || strings.Contains(lines[1], "\r") {
		t.Error("banner newlines should have been flattened")
	}
}

func TestJSONFormatterReportShape(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf, 3)
	f.Write(&Result{Event: "OPEN", IP: "10.0.0.1", Port: 80})
	f.Write(&Result{Event: "OPEN", IP: "10.0.0.1", Port: 443})
	f.Write(&Result{Event: "CLOSED", IP: "10.0.0.2", Port: 22})
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}

	var report struct {
		ScanInfo struct {
			TotalTargets int `json:"total_targets"`
			TotalScanned int `json:"total_scanned"`
		} `json:"scan_info"`
		Results map[string][]Result `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid report JSON: %v\nraw: %s", err, buf.String())
	}
	if report.ScanInfo.TotalTargets != 3 {
		t.Errorf("total_targets: want 3, got %d", report.ScanInfo.TotalTargets)
	}
	if report.ScanInfo.TotalScanned != 3 {
		t.Errorf("total_scanned: want 3, got %d", report.ScanInfo.TotalScanned)
	}
	if len(report.Results["10.0.0.1"]) != 2 {
		t.Errorf("expected 2 results grouped under 10.0.0.1, got %d", len(report.Results["10.0.0.1"]))
	}
	if len(report.Results["10.0.0.2"]) != 1 {
		t.Errorf("expected 1 result grouped under 10.0.0.2, got %d", len(report.Results["10.0.0.2"]))
	}
}

func TestTextFormatterSortsAndOmitsClosed(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(&buf)
	f.Write(&Result{Event: "OPEN", IP: "10.0.0.2", Port: 80, Service: "http"})
	f.Write(&Result{Event: "CLOSED", IP: "10.0.0.1", Port: 21})
	f.Write(&Result{Event: "OPEN", IP: "10.0.0.1", Port: 22, Service: "ssh", Version: "8.2"})
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.Contains(lines[0], "HOST") || !strings.Contains(lines[0], "STATE") {
		t.Errorf("expected a header row, got %q", lines[0])
	}
	if strings.Contains(out, "10.0.0.1") == false {
		t.Fatal("expected the open 10.0.0.1 row to be present")
	}
	if strings.Contains(out, ":21") || strings.Contains(out, "21 ") && strings.Contains(out, "closed") {
		t.Error("closed port should have been omitted from the table")
	}

	idx1 := strings.Index(out, "10.0.0.1")
	idx2 := strings.Index(out, "10.0.0.2")
	if idx1 == -1 || idx2 == -1 || idx1 > idx2 {
		t.Error("expected rows sorted by IP")
	}

	footer := lines[len(lines)-1]
	if !strings.Contains(footer, "total=3") || !strings.Contains(footer, "open=2") ||
		!strings.Contains(footer, "closed=1") || !strings.Contains(footer, "elapsed=") {
		t.Errorf("unexpected footer: %q", footer)
	}
}
