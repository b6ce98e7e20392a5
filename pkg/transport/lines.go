package transport

import (
	"regexp"
	"strconv"
	"strings"
)

// Line classification for the text protocol. Shared by the TCP, unix and
// WebSocket transports, which all receive the same newline-framed responses.

var (
	leadingStatusCodeRe = regexp.MustCompile(`^(\d{3})`)
	failureStatusRe     = regexp.MustCompile(`^(?:400|401|403|404|500|503)\s`)
	okStatusLineRe      = regexp.MustCompile(`^\d{3}\s+OK`)
)

const errorMarker = "ERROR:"

// deriveStatus maps the first collected line to an HTTP-ish status code.
// Anything unrecognized is informational text and counts as success.
func deriveStatus(firstLine string) int {
	if strings.HasPrefix(firstLine, errorMarker) {
		return 400
	}
	if m := leadingStatusCodeRe.FindString(firstLine); m != "" {
		if code, err := strconv.Atoi(m); err == nil {
			return code
		}
	}
	return 200
}

// isErrorLine reports a terminal error line: the ERROR: marker or a known
// failure status code followed by whitespace.
func isErrorLine(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, errorMarker) {
		return true
	}
	return failureStatusRe.MatchString(line)
}

// looksLikeStatusLine reports a success status line, after which any
// remaining payload is drained best-effort.
func looksLikeStatusLine(line string) bool {
	if line == "" {
		return false
	}
	return strings.HasPrefix(line, "OK") || okStatusLineRe.MatchString(line)
}

// isStreamEnd reports the streaming terminator frame ({"type":"end"}).
func isStreamEnd(line string) bool {
	if line == "" {
		return false
	}
	return strings.Contains(line, `"type"`) && strings.Contains(line, `"end"`)
}
