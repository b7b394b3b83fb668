// Package dissector runs tshark over a capture and parses its field output.
package dissector

import "fmt"

// DefaultBinary is the dissector executable looked up on PATH.
const DefaultBinary = "tshark"

const jsonContentTypeClause = ` && http.content_type contains "application/json"`

// Options select the capture and how tshark decodes it.
type Options struct {
	Input               string // capture file path
	DecodePorts         []int  // extra TCP ports decoded as HTTP
	NoContentTypeFilter bool   // also extract non-JSON transactions
	Binary              string // tshark path, DefaultBinary when empty
}

func (o Options) binary() string {
	if o.Binary == "" {
		return DefaultBinary
	}
	return o.Binary
}

// ResponseCommand builds the tshark invocation listing responses.
func ResponseCommand(opts Options) *Command {
	return &Command{
		Binary: opts.binary(),
		Args:   buildArgs(opts, "http.response", ResponseFields),
	}
}

// RequestCommand builds the tshark invocation listing requests.
func RequestCommand(opts Options) *Command {
	return &Command{
		Binary: opts.binary(),
		Args:   buildArgs(opts, "http.request", RequestFields),
	}
}

// DisplayFilter returns the tshark display filter for one side of the exchange.
// Only messages carrying a body are selected.
func DisplayFilter(side string, noContentTypeFilter bool) string {
	filter := side + " && http.file_data"
	if !noContentTypeFilter {
		filter += jsonContentTypeClause
	}
	return filter
}

func buildArgs(opts Options, side string, fields []string) []string {
	args := []string{
		"-r", opts.Input,
		"-o", "tcp.desegment_tcp_streams:TRUE",
		"-o", "http.desegment_body:TRUE",
		"-o", "http.decompress_body:TRUE",
		"-Y", DisplayFilter(side, opts.NoContentTypeFilter),
		"-T", "fields",
	}
	for _, f := range fields {
		args = append(args, "-e", f)
	}
	for _, p := range opts.DecodePorts {
		args = append(args, "-d", fmt.Sprintf("tcp.port==%d,http", p))
	}
	return args
}
