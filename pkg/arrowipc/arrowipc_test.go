package arrowipc

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneldb/sneldb.go/pkg/errs"
)

func buildStream(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	names := builder.Field(1).(*array.StringBuilder)
	names.Append("Alice")
	names.AppendNull()

	batch := builder.NewRecord()
	defer batch.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	require.NoError(t, writer.Write(batch))
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	records, err := NewDecoder().Decode(buildStream(t))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Key order follows the batch schema.
	assert.Equal(t, []string{"id", "name"}, records[0].Keys())

	id, ok := records[0].Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	name, ok := records[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)

	// Null cells decode to nil, not a missing key.
	name, ok = records[1].Get("name")
	require.True(t, ok)
	assert.Nil(t, name)
}

func TestDecodeInvalidPayload(t *testing.T) {
	_, err := NewDecoder().Decode([]byte("LP not an arrow stream"))

	var parseErr *errs.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Message, "Arrow stream")
}

func TestDecodeEmptyStream(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	require.NoError(t, writer.Close())

	records, err := NewDecoder().Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, records)
}
