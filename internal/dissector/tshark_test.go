package dissector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayFilter(t *testing.T) {
	assert.Equal(t, `http.request && http.file_data && http.content_type contains "application/json"`,
		DisplayFilter("http.request", false))
	assert.Equal(t, "http.response && http.file_data", DisplayFilter("http.response", true))
}

func TestRequestCommand(t *testing.T) {
	cmd := RequestCommand(Options{Input: "cap.pcap", DecodePorts: []int{8080, 9000}})

	assert.Equal(t, DefaultBinary, cmd.Binary)
	assert.Equal(t, []string{"-r", "cap.pcap"}, cmd.Args[:2])
	assert.Contains(t, cmd.Args, "http.decompress_body:TRUE")
	assert.Contains(t, cmd.Args, "http.request.full_uri")
	assert.Equal(t, []string{"-d", "tcp.port==8080,http", "-d", "tcp.port==9000,http"}, cmd.Args[len(cmd.Args)-4:])
}

func TestResponseCommand_Fields(t *testing.T) {
	cmd := ResponseCommand(Options{Input: "cap.pcap", Binary: "/opt/wireshark/tshark", NoContentTypeFilter: true})

	assert.Equal(t, "/opt/wireshark/tshark", cmd.Binary)
	assert.Contains(t, cmd.Args, "http.response && http.file_data")

	var fields []string
	for i, a := range cmd.Args {
		if a == "-e" {
			fields = append(fields, cmd.Args[i+1])
		}
	}
	assert.Equal(t, ResponseFields, fields)
}
