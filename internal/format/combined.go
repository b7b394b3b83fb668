package format

import "strings"

// CombinedLine renders the Apache combined log line extended with connection
// endpoints and the two bodies:
//
//	%h %l %u %t "%r" %>s %b "%{Referer}i" "%{User-agent}i" src:port dst:port <REQ_JSON> <RES_JSON>
func CombinedLine(tx *Transaction) string {
	var sb strings.Builder
	sb.Grow(128 + len(tx.RequestJSON) + len(tx.ResponseJSON()))

	sb.WriteString(orDash(tx.SrcIP))
	sb.WriteString(" - - ")
	sb.WriteString(tx.ApacheTime())
	sb.WriteString(` "`)
	sb.WriteString(tx.RequestLine())
	sb.WriteString(`" `)
	sb.WriteString(tx.StatusField())
	sb.WriteByte(' ')
	sb.WriteString(tx.BytesField())
	sb.WriteString(` "`)
	sb.WriteString(orDash(tx.Referer))
	sb.WriteString(`" "`)
	sb.WriteString(orDash(tx.UserAgent))
	sb.WriteString(`" `)
	sb.WriteString(orDash(tx.SrcIP))
	sb.WriteByte(':')
	sb.WriteString(orDash(tx.SrcPort))
	sb.WriteByte(' ')
	sb.WriteString(orDash(tx.DstIP))
	sb.WriteByte(':')
	sb.WriteString(orDash(tx.DstPort))
	sb.WriteByte(' ')
	sb.WriteString(tx.RequestJSON)
	sb.WriteByte(' ')
	sb.WriteString(tx.ResponseJSON())
	return sb.String()
}
