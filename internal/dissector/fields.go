package dissector

import "strings"

// Column counts of the two tuple kinds. Lines with fewer columns are dropped.
const (
	ResponseColumns = 6
	RequestColumns  = 15
)

// ResponseFields are the tshark fields extracted for responses, in column order.
var ResponseFields = []string{
	"frame.time_epoch",
	"tcp.stream",
	"http.response.code",
	"http.content_length_header",
	"http.content_type",
	"http.file_data",
}

// RequestFields are the tshark fields extracted for requests, in column order.
var RequestFields = []string{
	"frame.time_epoch",
	"tcp.stream",
	"ip.src",
	"tcp.srcport",
	"ip.dst",
	"tcp.dstport",
	"http.request.method",
	"http.request.uri",
	"http.request.full_uri",
	"http.host",
	"http.request.version",
	"http.user_agent",
	"http.referer",
	"http.content_type",
	"http.file_data",
}

// ResponseTuple is one response-side record. Empty strings mean the field was absent.
type ResponseTuple struct {
	Timestamp     string
	Stream        string
	Status        string
	ContentLength string
	ContentType   string
	Body          string
}

// RequestTuple is one request-side record. Empty strings mean the field was absent.
type RequestTuple struct {
	Timestamp   string
	Stream      string
	SrcIP       string
	SrcPort     string
	DstIP       string
	DstPort     string
	Method      string
	URI         string
	FullURI     string
	Host        string
	Version     string
	UserAgent   string
	Referer     string
	ContentType string
	Body        string
}

// ParseResponse splits a response line. It reports false for short lines.
func ParseResponse(line string) (ResponseTuple, bool) {
	cols, ok := split(line, ResponseColumns)
	if !ok {
		return ResponseTuple{}, false
	}
	return ResponseTuple{
		Timestamp:     cols[0],
		Stream:        cols[1],
		Status:        cols[2],
		ContentLength: cols[3],
		ContentType:   cols[4],
		Body:          cols[5],
	}, true
}

// ParseRequest splits a request line. It reports false for short lines.
func ParseRequest(line string) (RequestTuple, bool) {
	cols, ok := split(line, RequestColumns)
	if !ok {
		return RequestTuple{}, false
	}
	return RequestTuple{
		Timestamp:   cols[0],
		Stream:      cols[1],
		SrcIP:       cols[2],
		SrcPort:     cols[3],
		DstIP:       cols[4],
		DstPort:     cols[5],
		Method:      cols[6],
		URI:         cols[7],
		FullURI:     cols[8],
		Host:        cols[9],
		Version:     cols[10],
		UserAgent:   cols[11],
		Referer:     cols[12],
		ContentType: cols[13],
		Body:        cols[14],
	}, true
}

// split cuts line into n columns. The body is the last column, so any tabs
// past the n-1th separator stay inside it.
func split(line string, n int) ([]string, bool) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	cols := strings.SplitN(line, "\t", n)
	if len(cols) < n {
		return nil, false
	}
	return cols, true
}
