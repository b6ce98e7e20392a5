package parser

import (
	"encoding/json"
	"strings"

	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/models"
)

// frameType discriminates the streaming wire frames. Decoded once per line;
// unknown types are skipped.
type frameType string

const (
	frameTypeSchema frameType = "schema"
	frameTypeBatch  frameType = "batch"
	frameTypeRow    frameType = "row"
	frameTypeEnd    frameType = "end"
)

// frame is one decoded JSON line of a streaming response. Only the fields
// matching its type are populated.
type frame struct {
	Type    frameType         `json:"type"`
	Columns models.Schema     `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
	Values  json.RawMessage   `json:"values"`
}

// parseStreamingFrames walks newline-delimited JSON frames. A schema frame
// sets the column labels for subsequent positional rows; an end frame stops
// processing immediately, whatever follows.
func parseStreamingFrames(lines []string) ([]*models.Record, error) {
	records := []*models.Record{}
	var schema models.Schema

	for _, line := range lines {
		if line == "" {
			continue
		}
		var f frame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return nil, &errs.ParseError{Message: "invalid streaming frame", Err: err}
		}
		switch f.Type {
		case frameTypeSchema:
			if f.Columns != nil {
				schema = f.Columns
			}
		case frameTypeBatch:
			for _, raw := range f.Rows {
				rec, ok, err := rowRecord(raw, schema)
				if err != nil {
					return nil, err
				}
				if ok {
					records = append(records, rec)
				}
			}
		case frameTypeRow:
			if len(f.Values) == 0 {
				continue
			}
			rec, ok, err := rowRecord(f.Values, schema)
			if err != nil {
				return nil, err
			}
			if ok {
				records = append(records, rec)
			}
		case frameTypeEnd:
			return records, nil
		}
	}
	return records, nil
}

// rowRecord decodes one row payload: an object passes through keyed, an
// array zips against the schema or wraps as {"values": [...]}. Anything else
// is skipped.
func rowRecord(raw json.RawMessage, schema models.Schema) (*models.Record, bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, false, nil
	}
	value, err := models.UnmarshalValue(raw)
	if err != nil {
		return nil, false, &errs.ParseError{Message: "invalid streaming row", Err: err}
	}
	switch v := value.(type) {
	case *models.Record:
		return v, true, nil
	case []any:
		if schema != nil {
			return schema.RecordFromRow(v), true, nil
		}
		rec := models.NewRecord()
		rec.Set("values", v)
		return rec, true, nil
	}
	return nil, false, nil
}

// looksLikeArrow matches the columnar batch format by content type or by the
// server's two-byte stream prefix.
func looksLikeArrow(contentType string, body []byte) bool {
	if strings.Contains(contentType, "arrow") {
		return true
	}
	return len(body) > 4 && body[0] == 'L' && body[1] == 'P'
}
