package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sqlassist/sqlassist/internal/warehouse"
)

func encodeCSV(buf *bytes.Buffer, result warehouse.Result) error {
	w := csv.NewWriter(buf)
	if err := w.Write(result.Columns); err != nil {
		return err
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, column := range result.Columns {
			record[i] = formatValue(row[column])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// formatValue renders a cell as text. NULL becomes the empty string.
func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typed)
	}
}
