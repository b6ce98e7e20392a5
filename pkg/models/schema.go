package models

import "fmt"

// Column describes one column announced by a streaming schema frame. Servers
// may attach more fields (type, nullability); only the name matters here.
type Column struct {
	Name string `json:"name"`
}

// Schema is the ordered column list used to label positional row values.
type Schema []Column

// RecordFromRow zips positional values against the schema. Values beyond the
// schema get synthetic col_<idx> keys, matching the server's renderers.
func (s Schema) RecordFromRow(values []any) *Record {
	rec := NewRecord()
	for i, v := range values {
		name := ""
		if i < len(s) {
			name = s[i].Name
		}
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		rec.Set(name, v)
	}
	return rec
}
