package export

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"github.com/sqlassist/sqlassist/internal/warehouse"
)

// cell is one value of a result set. Results have no fixed schema, so they
// are written in long form with one record per row and column.
type cell struct {
	RowIndex int64  `parquet:"row_index"`
	Column   string `parquet:"column,dict"`
	Value    string `parquet:"value"`
	IsNull   bool   `parquet:"is_null"`
}

func encodeParquet(buf *bytes.Buffer, result warehouse.Result) error {
	writer := parquet.NewGenericWriter[cell](buf)
	batch := make([]cell, 0, len(result.Columns))
	for rowIndex, row := range result.Rows {
		batch = batch[:0]
		for _, column := range result.Columns {
			value := row[column]
			batch = append(batch, cell{
				RowIndex: int64(rowIndex),
				Column:   column,
				Value:    formatValue(value),
				IsNull:   value == nil,
			})
		}
		if _, err := writer.Write(batch); err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}
