package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vajra-scan/vajra/internal/model"
)

// Result represents a single found target, in the shape every Formatter
// renders. Event mirrors the probe's PortState ("OPEN", "CLOSED",
// "FILTERED", "OPEN_FILTERED").
type Result struct {
	Event      string  `json:"event"`
	IP         string  `json:"ip"`
	Port       uint16  `json:"port"`
	Proto      string  `json:"proto"`
	Timestamp  string  `json:"timestamp"`
	Banner     string  `json:"banner,omitempty"`
	RTTMillis  float64 `json:"rtt_ms,omitempty"`
	Service    string  `json:"service,omitempty"`
	Product    string  `json:"product,omitempty"`
	Version    string  `json:"version,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ResultFromProbe converts a model.ProbeResult into the Result shape every
// Formatter knows how to render.
func ResultFromProbe(r model.ProbeResult) *Result {
	res := &Result{
		Event:     strings.ToUpper(strings.ReplaceAll(r.State.String(), "|", "_")),
		IP:        r.Target.IP.String(),
		Port:      r.Target.Port,
		Proto:     r.Target.Protocol.String(),
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		RTTMillis: float64(r.RTT.Microseconds()) / 1000.0,
	}
	if r.HasBanner {
		res.Banner = r.Banner
	}
	if r.Service != nil {
		res.Service = r.Service.Service
		res.Product = r.Service.Product
		res.Version = r.Service.Version
		res.Confidence = r.Service.Confidence
	}
	return res
}

// state returns the lowercase, pipe-joined canonical state string
// ("open", "closed", "filtered", "open|filtered") a Result's Event encodes.
func (r *Result) state() string {
	return strings.ToLower(strings.ReplaceAll(r.Event, "_", "|"))
}

// Formatter renders a stream of Results. Write is called once per result as
// they arrive; Flush is called exactly once at the end of a scan and is
// where formats that need the whole result set (a sorted table, a JSON
// report with aggregate stats) actually produce their output.
type Formatter interface {
	Write(res *Result) error
	Flush() error
}

// JSONFormatter buffers every result and emits a single report document on
// Flush: { scan_info: {...}, results: { "<ip>": [...] } }.
type JSONFormatter struct {
	w            io.Writer
	started      time.Time
	totalTargets int

	mu      sync.Mutex
	results []*Result
}

// NewJSONFormatter returns a formatter that reports totalTargets as the
// scan's target count (distinct from the number of results actually
// written, which may be fewer when -open is set).
func NewJSONFormatter(w io.Writer, totalTargets int) *JSONFormatter {
	return &JSONFormatter{w: w, started: time.Now(), totalTargets: totalTargets}
}

func (f *JSONFormatter) Write(res *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

type scanInfo struct {
	DurationSeconds   float64 `json:"duration_seconds"`
	DurationFormatted string  `json:"duration_formatted"`
	TotalTargets      int     `json:"total_targets"`
	TotalScanned      int     `json:"total_scanned"`
}

type jsonReport struct {
	ScanInfo scanInfo             `json:"scan_info"`
	Results  map[string][]*Result `json:"results"`
}

func (f *JSONFormatter) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	grouped := make(map[string][]*Result, len(f.results))
	for _, r := range f.results {
		grouped[r.IP] = append(grouped[r.IP], r)
	}

	elapsed := time.Since(f.started)
	report := jsonReport{
		ScanInfo: scanInfo{
			DurationSeconds:   elapsed.Seconds(),
			DurationFormatted: elapsed.Round(time.Millisecond).String(),
			TotalTargets:      f.totalTargets,
			TotalScanned:      len(f.results),
		},
		Results: grouped,
	}
	return json.NewEncoder(f.w).Encode(report)
}

// CSVFormatter writes one row per result in the order
// ip,port,state,service,product,version,banner,rtt_ms.
type CSVFormatter struct {
	writer *csv.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ip", "port", "state", "service", "product", "version", "banner", "rtt_ms"})
	return &CSVFormatter{writer: cw}
}

func (f *CSVFormatter) Write(res *Result) error {
	banner := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(res.Banner)
	return f.writer.Write([]string{
		res.IP,
		fmt.Sprintf("%d", res.Port),
		res.state(),
		res.Service,
		res.Product,
		res.Version,
		strings.ToValidUTF8(banner, ""),
		fmt.Sprintf("%.3f", res.RTTMillis),
	})
}

func (f *CSVFormatter) Flush() error {
	f.writer.Flush()
	return f.writer.Error()
}

// TextFormatter buffers every result and, on Flush, renders a fixed-width
// table sorted by (IP, port) with Closed ports omitted, followed by a
// summary footer.
type TextFormatter struct {
	w       io.Writer
	started time.Time

	mu      sync.Mutex
	results []*Result
}

func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{w: w, started: time.Now()}
}

func (f *TextFormatter) Write(res *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func (f *TextFormatter) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sorted := make([]*Result, len(f.results))
	copy(sorted, f.results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].IP != sorted[j].IP {
			ipi, ipj := net.ParseIP(sorted[i].IP).To16(), net.ParseIP(sorted[j].IP).To16()
			if c := bytes.Compare(ipi, ipj); c != 0 {
				return c < 0
			}
			return sorted[i].IP < sorted[j].IP
		}
		return sorted[i].Port < sorted[j].Port
	})

	var open, closed, filtered int
	for _, r := range f.results {
		switch r.Event {
		case "OPEN":
			open++
		case "CLOSED":
			closed++
		default:
			filtered++
		}
	}

	if _, err := fmt.Fprintf(f.w, "%-16s | %-5s | %-8s | %s\n", "HOST", "PORT", "STATE", "SERVICE/VERSION"); err != nil {
		return err
	}
	for _, r := range sorted {
		if r.Event == "CLOSED" {
			continue
		}
		svc := r.Service
		if r.Version != "" {
			svc = fmt.Sprintf("%s/%s", r.Service, r.Version)
		}
		if _, err := fmt.Fprintf(f.w, "%-16s | %-5d | %-8s | %s\n", r.IP, r.Port, r.state(), svc); err != nil {
			return err
		}
	}

	elapsed := time.Since(f.started)
	_, err := fmt.Fprintf(f.w, "total=%d open=%d closed=%d filtered=%d elapsed=%s\n",
		len(f.results), open, closed, filtered, elapsed.Round(time.Millisecond))
	return err
}

// MultiWriter supports concurrent writes.
type MultiWriter struct {
	Formatter Formatter
	mu        sync.Mutex
}

func (w *MultiWriter) Write(res *Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Formatter.Write(res)
}

func (w *MultiWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Formatter.Flush()
}
