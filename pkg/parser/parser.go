// Package parser detects the format of a server response and normalizes it
// into an ordered record list.
//
// Detection order, first match wins: columnar Arrow batch, streaming JSON
// frames, a whole-body JSON object or array, a pipe-delimited table, then raw
// lines as a fallback.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
	"github.com/sneldb/sneldb.go/pkg/models"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

// ArrowDecoder turns a columnar binary batch stream into row-major records.
// The implementation lives in pkg/arrowipc so the heavy dependency stays
// optional; a Normalizer without one reports Arrow payloads as a ParseError
// with a corrective message.
type ArrowDecoder interface {
	Decode(data []byte) ([]*models.Record, error)
}

// Normalizer converts transport responses into records. The zero value works
// for all text formats.
type Normalizer struct {
	ArrowDecoder ArrowDecoder
	Logger       logger.Logger
}

// Normalize decodes a response body exactly once into ordered records.
func (n *Normalizer) Normalize(resp *transport.Response) ([]*models.Record, error) {
	body := resp.Body
	contentType := strings.ToLower(resp.Header("content-type"))

	if looksLikeArrow(contentType, body) {
		if n.ArrowDecoder == nil {
			return nil, &errs.ParseError{Message: "Arrow response received but no Arrow decoder is configured; " +
				"inject pkg/arrowipc.NewDecoder() or set the server output format to text"}
		}
		records, err := n.ArrowDecoder.Decode(body)
		if err != nil {
			if _, ok := err.(*errs.ParseError); ok {
				return nil, err
			}
			return nil, &errs.ParseError{Message: "failed to read Arrow batch", Err: err}
		}
		logger.OrNoOp(n.Logger).Debug("arrow response decoded", "rows", len(records), "bytes", len(body))
		return records, nil
	}

	return parseText(string(body))
}

// IsArrowResponse reports whether the response carries a columnar binary
// batch, for callers that want to know before normalizing.
func IsArrowResponse(resp *transport.Response) bool {
	return looksLikeArrow(strings.ToLower(resp.Header("content-type")), resp.Body)
}

// ExtractErrorMessage pulls a human-readable message out of a failure body:
// the "message" field when the body is a JSON object, otherwise the trimmed
// text, with a fixed placeholder for empty bodies.
func ExtractErrorMessage(body string) string {
	const fallback = "Error occurred"
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return fallback
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		if message, ok := parsed["message"]; ok {
			if s, ok := message.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", message)
		}
	}
	return trimmed
}

func parseText(textData string) ([]*models.Record, error) {
	text := strings.TrimSpace(textData)
	if text == "" {
		return []*models.Record{}, nil
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	dataLines := dropStatusPrefix(lines)

	if len(dataLines) > 0 && strings.HasPrefix(dataLines[0], "{") && strings.Contains(dataLines[0], `"type"`) {
		return parseStreamingFrames(dataLines)
	}

	if looksLikeJSONObject(text) || looksLikeJSONArray(text) {
		records, err := models.UnmarshalRecords([]byte(text))
		if err != nil {
			return nil, &errs.ParseError{Message: "invalid JSON response", Err: err}
		}
		return records, nil
	}

	if len(dataLines) == 0 {
		return []*models.Record{}, nil
	}

	if strings.Contains(dataLines[0], "|") {
		return parsePipeDelimited(dataLines), nil
	}

	records := make([]*models.Record, 0, len(dataLines))
	for _, line := range dataLines {
		rec := models.NewRecord()
		rec.Set("raw", line)
		records = append(records, rec)
	}
	return records, nil
}

// dropStatusPrefix removes a leading status/noise line ("OK ...", "200 ...",
// or any line opening with digits) before format detection.
func dropStatusPrefix(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	if hasStatusPrefix(lines[0]) {
		return lines[1:]
	}
	return lines
}

func hasStatusPrefix(line string) bool {
	if strings.HasPrefix(strings.ToUpper(line), "OK") {
		return true
	}
	if strings.HasPrefix(line, "200 ") {
		return true
	}
	prefix := line
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func looksLikeJSONObject(text string) bool {
	return strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
}

func looksLikeJSONArray(text string) bool {
	return strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")
}

// parsePipeDelimited decodes "A|B\n1|2" tables. The first line counts as a
// header only when every token is alphanumeric/underscore; rows that do not
// zip cleanly fall back to raw+parts records.
func parsePipeDelimited(lines []string) []*models.Record {
	headers := splitPipe(lines[0])
	dataStart := 0
	if len(headers) > 0 && allHeaderTokens(headers) {
		dataStart = 1
	}

	var records []*models.Record
	for _, line := range lines[dataStart:] {
		values := splitPipe(line)
		rec := models.NewRecord()
		if dataStart == 1 && len(values) == len(headers) {
			for i, header := range headers {
				rec.Set(strings.ToLower(header), values[i])
			}
		} else {
			rec.Set("raw", line)
			rec.Set("parts", values)
		}
		records = append(records, rec)
	}
	return records
}

func splitPipe(line string) []string {
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func allHeaderTokens(headers []string) bool {
	for _, header := range headers {
		stripped := strings.ReplaceAll(header, "_", "")
		if stripped == "" {
			return false
		}
		for _, r := range stripped {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
