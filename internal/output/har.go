package output

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/tsharklog/internal/format"
)

// HAR represents the root HAR object following the W3C specification
type HAR struct {
	Log HARLog `json:"log"`
}

// HARLog represents the log object containing all HTTP transaction data
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Pages   []any      `json:"pages"` // HAR 1.2 requires the field, so no omitempty
	Entries []HAREntry `json:"entries"`
}

// HARCreator represents the application that created the HAR file
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry represents a single HTTP transaction
type HAREntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
	Cache           struct{}    `json:"cache"`
	Timings         HARTimings  `json:"timings"`
	ServerIPAddress string      `json:"serverIPAddress,omitempty"`
	Connection      string      `json:"connection,omitempty"`
	Comment         string      `json:"comment,omitempty"`
}

// HARRequest represents the HTTP request details
type HARRequest struct {
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	HTTPVersion string         `json:"httpVersion"`
	Cookies     []HARNameValue `json:"cookies"`
	Headers     []HARNameValue `json:"headers"`
	QueryString []HARNameValue `json:"queryString"`
	PostData    *HARPostData   `json:"postData,omitempty"`
	HeadersSize int            `json:"headersSize"`
	BodySize    int            `json:"bodySize"`
}

// HARResponse represents the HTTP response details
type HARResponse struct {
	Status      int            `json:"status"`
	StatusText  string         `json:"statusText"`
	HTTPVersion string         `json:"httpVersion"`
	Cookies     []HARNameValue `json:"cookies"`
	Headers     []HARNameValue `json:"headers"`
	Content     HARContent     `json:"content"`
	RedirectURL string         `json:"redirectURL"`
	HeadersSize int            `json:"headersSize"`
	BodySize    int            `json:"bodySize"`
}

// HARNameValue represents a name-value pair for headers, query parameters, etc.
type HARNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARPostData represents POST data
type HARPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// HARContent represents response content
type HARContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
}

// HARTimings represents timing information. Capture-derived entries carry no timings.
type HARTimings struct {
	Blocked int `json:"blocked"`
	DNS     int `json:"dns"`
	Connect int `json:"connect"`
	Send    int `json:"send"`
	Wait    int `json:"wait"`
	Receive int `json:"receive"`
}

const (
	harCreatorName    = "tsharklog"
	harCreatorVersion = "0.1.0"
	unknownMimeType   = "x-unknown"
)

// harWriter collects entries and writes the whole document on Close.
type harWriter struct {
	dst io.WriteCloser
	har *HAR
}

func newHARWriter(dst io.WriteCloser) *harWriter {
	return &harWriter{
		dst: dst,
		har: &HAR{
			Log: HARLog{
				Version: "1.2",
				Creator: HARCreator{Name: harCreatorName, Version: harCreatorVersion},
				Pages:   []any{},
				Entries: []HAREntry{},
			},
		},
	}
}

func (w *harWriter) Write(tx *format.Transaction) error {
	w.har.Log.Entries = append(w.har.Log.Entries, ConvertTransaction(tx))
	return nil
}

func (w *harWriter) Close() error {
	enc := json.NewEncoder(w.dst)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.har); err != nil {
		_ = w.dst.Close()
		return err
	}
	return w.dst.Close()
}

// ConvertTransaction converts a transaction to a HAR entry. Bodies carry the
// masked single-line JSON rendering.
func ConvertTransaction(tx *format.Transaction) HAREntry {
	started := tx.ISOTime()
	if started == "" {
		started = time.Unix(0, 0).UTC().Format(time.RFC3339)
	}

	absoluteURL := buildAbsoluteURL(tx)

	entry := HAREntry{
		StartedDateTime: started,
		Request: HARRequest{
			Method:      orDash(tx.Method),
			URL:         absoluteURL,
			HTTPVersion: orDash(tx.Version),
			Cookies:     []HARNameValue{},
			Headers:     requestHeaders(tx),
			QueryString: parseQueryString(absoluteURL),
			PostData: &HARPostData{
				MimeType: orDefault(tx.ContentType, unknownMimeType),
				Text:     tx.RequestJSON,
			},
			HeadersSize: -1,
			BodySize:    -1,
		},
		Response: HARResponse{
			HTTPVersion: orDash(tx.Version),
			Cookies:     []HARNameValue{},
			Headers:     []HARNameValue{},
			Content:     HARContent{MimeType: unknownMimeType},
			HeadersSize: -1,
			BodySize:    -1,
		},
		Timings: HARTimings{
			Blocked: -1,
			DNS:     -1,
			Connect: -1,
		},
		ServerIPAddress: tx.DstIP,
	}

	if tx.HasStream {
		entry.Connection = strconv.FormatInt(tx.Stream, 10)
	}

	if r := tx.Response; r != nil {
		status, _ := strconv.Atoi(r.Status)
		entry.Response.Status = status
		entry.Response.StatusText = http.StatusText(status)
		entry.Response.BodySize = r.Bytes
		entry.Response.Content = HARContent{
			Size:     r.Bytes,
			MimeType: orDefault(r.ContentType, unknownMimeType),
			Text:     r.BodyJSON,
		}
		if r.ContentType != "" {
			entry.Response.Headers = append(entry.Response.Headers, HARNameValue{Name: "Content-Type", Value: r.ContentType})
		}
	} else {
		entry.Comment = "no response captured"
	}

	return entry
}

// buildAbsoluteURL uses the resolved URL when it is absolute, else the
// destination endpoint and request-target.
func buildAbsoluteURL(tx *format.Transaction) string {
	if strings.HasPrefix(tx.URL, "http://") || strings.HasPrefix(tx.URL, "https://") {
		return tx.URL
	}

	host := tx.Host
	if host == "" {
		host = tx.DstIP
		if tx.DstPort != "" && tx.DstPort != "80" {
			host += ":" + tx.DstPort
		}
	}
	target := tx.Target()
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return "http://" + host + target
}

func requestHeaders(tx *format.Transaction) []HARNameValue {
	headers := []HARNameValue{}
	add := func(name, value string) {
		if value != "" {
			headers = append(headers, HARNameValue{Name: name, Value: value})
		}
	}
	add("Host", tx.Host)
	add("User-Agent", tx.UserAgent)
	add("Referer", tx.Referer)
	add("Content-Type", tx.ContentType)
	return headers
}

func parseQueryString(rawURL string) []HARNameValue {
	out := []HARNameValue{}
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return out
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		out = append(out, HARNameValue{Name: name, Value: value})
	}
	return out
}

func orDash(s string) string {
	return orDefault(s, format.Dash)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
