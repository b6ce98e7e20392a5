package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalValue decodes one JSON value. Objects become *Record (order
// preserved, recursively), arrays []any, everything else the encoding/json
// defaults.
func UnmarshalValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshalRecords decodes a JSON body into a record list: an array yields one
// record per element, a single object a one-element list. Array elements that
// are not objects are wrapped under a "value" key so the result stays uniform.
func UnmarshalRecords(data []byte) ([]*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("models: expected JSON object or array, got %v", tok)
	}
	switch delim {
	case '{':
		rec, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		return []*Record{rec}, nil
	case '[':
		var records []*Record
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if rec, ok := v.(*Record); ok {
				records = append(records, rec)
				continue
			}
			wrapped := NewRecord()
			wrapped.Set("value", v)
			records = append(records, wrapped)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return records, nil
	}
	return nil, fmt.Errorf("models: unexpected delimiter %v", delim)
}

// decodeValue reads the next value from dec, turning objects into *Record.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("models: unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// decodeObject consumes an object body whose opening brace was already read.
func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("models: expected object key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec.Set(key, value)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return rec, nil
}

// decodeArray consumes an array body whose opening bracket was already read.
func decodeArray(dec *json.Decoder) ([]any, error) {
	values := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil { // closing bracket
		return nil, err
	}
	return values, nil
}
