package format

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/usestring/tsharklog/internal/correlator"
)

// Placeholders used when a field is absent.
const (
	Dash          = "-"
	NoTime        = "[-]"
	DefaultTarget = "/"
	NullBody      = "null"
)

const (
	apacheTimeLayout = "[02/Jan/2006:15:04:05 -0700]"
	isoTimeLayout    = "2006-01-02T15:04:05.000Z"
)

// Transaction is one request joined with the response popped for it, if any.
// It lives only while its log line is written.
type Transaction struct {
	Time    time.Time
	HasTime bool

	Stream    int64
	HasStream bool

	SrcIP   string
	SrcPort string
	DstIP   string
	DstPort string

	Method      string
	URI         string
	URL         string // resolved absolute URL, empty when unknown
	Host        string
	Version     string
	UserAgent   string
	Referer     string
	ContentType string

	RequestJSON string
	Response    *correlator.Response // nil when no response was matched
}

// Matched reports whether a response was paired with the request.
func (tx *Transaction) Matched() bool {
	return tx.Response != nil
}

// ApacheTime renders the request time as [DD/Mon/YYYY:HH:MM:SS +0000].
func (tx *Transaction) ApacheTime() string {
	if !tx.HasTime {
		return NoTime
	}
	return tx.Time.UTC().Format(apacheTimeLayout)
}

// ISOTime renders the request time as ISO-8601 UTC with milliseconds.
func (tx *Transaction) ISOTime() string {
	if !tx.HasTime {
		return ""
	}
	return tx.Time.UTC().Format(isoTimeLayout)
}

// Target is the request-target of the request line.
func (tx *Transaction) Target() string {
	return orDefault(tx.URI, DefaultTarget)
}

// RequestLine renders METHOD SP target SP version.
func (tx *Transaction) RequestLine() string {
	return orDash(tx.Method) + " " + tx.Target() + " " + orDash(tx.Version)
}

// StatusField is the matched status code, or "-".
func (tx *Transaction) StatusField() string {
	if tx.Response == nil {
		return Dash
	}
	return orDash(tx.Response.Status)
}

// BytesField is the matched response size, or "-".
func (tx *Transaction) BytesField() string {
	if tx.Response == nil {
		return Dash
	}
	return strconv.Itoa(tx.Response.Bytes)
}

// ResponseJSON is the matched response body, or the literal null.
func (tx *Transaction) ResponseJSON() string {
	if tx.Response == nil || tx.Response.BodyJSON == "" {
		return NullBody
	}
	return tx.Response.BodyJSON
}

// Endpoint is one side of the connection.
type Endpoint struct {
	IP   string `json:"ip" jsonschema:"description=IP address, empty when absent"`
	Port string `json:"port" jsonschema:"description=TCP port, empty when absent"`
}

// Record is the structured form of a transaction, emitted by the jsonl format
// and evaluated by match filters.
type Record struct {
	Time         string          `json:"time,omitempty" jsonschema:"description=Request time in ISO-8601 UTC with milliseconds"`
	Stream       *int64          `json:"stream,omitempty" jsonschema:"description=TCP stream index"`
	Client       string          `json:"client" jsonschema:"description=Client address or -"`
	Src          Endpoint        `json:"src"`
	Dst          Endpoint        `json:"dst"`
	Method       string          `json:"method"`
	Target       string          `json:"target"`
	Version      string          `json:"version"`
	URL          string          `json:"url,omitempty"`
	Host         string          `json:"host,omitempty"`
	Referer      string          `json:"referer,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	ContentType  string          `json:"content_type,omitempty"`
	Matched      bool            `json:"matched"`
	Status       string          `json:"status,omitempty"`
	Bytes        *int            `json:"bytes,omitempty"`
	ResponseType string          `json:"response_content_type,omitempty"`
	RequestBody  json.RawMessage `json:"request_body" jsonschema:"description=Request body as JSON; non-JSON bodies are strings"`
	ResponseBody json.RawMessage `json:"response_body" jsonschema:"description=Response body as JSON, null when unmatched"`
}

// Record converts the transaction to its structured form.
func (tx *Transaction) Record() Record {
	rec := Record{
		Time:         tx.ISOTime(),
		Client:       orDash(tx.SrcIP),
		Src:          Endpoint{IP: tx.SrcIP, Port: tx.SrcPort},
		Dst:          Endpoint{IP: tx.DstIP, Port: tx.DstPort},
		Method:       orDash(tx.Method),
		Target:       tx.Target(),
		Version:      orDash(tx.Version),
		URL:          tx.URL,
		Host:         tx.Host,
		Referer:      tx.Referer,
		UserAgent:    tx.UserAgent,
		ContentType:  tx.ContentType,
		Matched:      tx.Matched(),
		RequestBody:  json.RawMessage(tx.RequestJSON),
		ResponseBody: json.RawMessage(tx.ResponseJSON()),
	}
	if tx.HasStream {
		s := tx.Stream
		rec.Stream = &s
	}
	if tx.Response != nil {
		rec.Status = tx.Response.Status
		rec.ResponseType = tx.Response.ContentType
		b := tx.Response.Bytes
		rec.Bytes = &b
	}
	return rec
}

func orDash(s string) string {
	return orDefault(s, Dash)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
