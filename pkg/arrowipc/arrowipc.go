// Package arrowipc decodes columnar Arrow IPC batch streams into row-major
// records. It is the concrete implementation of parser.ArrowDecoder and the
// only place the arrow dependency is imported, so clients that never request
// binary output can stay off it by not injecting a Decoder.
package arrowipc

import (
	"bytes"
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/models"
)

type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Decode opens the payload as an Arrow stream and converts every batch to
// records by zipping column values row by row. Column order follows the
// batch schema, so record key order matches the server's column order.
func (d *Decoder) Decode(data []byte) ([]*models.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &errs.ParseError{Message: "failed to open Arrow stream", Err: err}
	}
	defer reader.Release()

	records := []*models.Record{}
	for reader.Next() {
		batch := reader.Record()
		schema := batch.Schema()
		for row := 0; row < int(batch.NumRows()); row++ {
			rec := models.NewRecord()
			for col := 0; col < int(batch.NumCols()); col++ {
				column := batch.Column(col)
				var value any
				if !column.IsNull(row) {
					value = column.GetOneForMarshal(row)
				}
				rec.Set(schema.Field(col).Name, value)
			}
			records = append(records, rec)
		}
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, &errs.ParseError{Message: "failed to read Arrow batch", Err: err}
	}
	return records, nil
}
