package synprobe

import (
	"testing"

	"github.com/vajra-scan/vajra/internal/capture"
	"github.com/vajra-scan/vajra/internal/model"
)

func TestClassifyResponse(t *testing.T) {
	cases := []struct {
		name string
		resp capture.Response
		want model.PortState
	}{
		{"syn-ack is open", capture.Response{SYN: true, ACK: true}, model.Open},
		{"rst is closed", capture.Response{RST: true}, model.Closed},
		{"bare ack is filtered", capture.Response{ACK: true}, model.Filtered},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classify(c.resp); got != c.want {
				t.Errorf("classify(%+v) = %s, want %s", c.resp, got, c.want)
			}
		})
	}
}
