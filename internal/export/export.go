// Package export writes successful query results to the object store as CSV
// or Parquet files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sqlassist/sqlassist/internal/storage"
	"github.com/sqlassist/sqlassist/internal/warehouse"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

type encoder func(buf *bytes.Buffer, result warehouse.Result) error

var encoders = map[string]struct {
	contentType string
	encode      encoder
}{
	FormatCSV:     {contentType: "text/csv", encode: encodeCSV},
	FormatParquet: {contentType: "application/vnd.apache.parquet", encode: encodeParquet},
}

type Exporter struct {
	store         storage.ObjectStore
	defaultFormat string
	now           func() time.Time
}

func New(store storage.ObjectStore, defaultFormat string) *Exporter {
	if defaultFormat == "" {
		defaultFormat = FormatCSV
	}
	return &Exporter{store: store, defaultFormat: defaultFormat, now: time.Now}
}

func SupportedFormat(format string) bool {
	_, ok := encoders[strings.ToLower(format)]
	return ok
}

// Export encodes result and uploads it under a key derived from queryID.
// An empty format selects the exporter's default.
func (e *Exporter) Export(ctx context.Context, queryID string, result warehouse.Result, format string) (storage.ObjectInfo, error) {
	if format == "" {
		format = e.defaultFormat
	}
	format = strings.ToLower(format)
	codec, ok := encoders[format]
	if !ok {
		return storage.ObjectInfo{}, fmt.Errorf("unsupported export format %q", format)
	}

	key, err := storage.BuildExportPath(queryID, format, e.now())
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("build export path: %w", err)
	}

	var buf bytes.Buffer
	if err := codec.encode(&buf, result); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("encode %s: %w", format, err)
	}

	size := int64(buf.Len())
	info, err := e.store.Put(ctx, key, &buf, size, storage.PutOptions{
		ContentType: codec.contentType,
		Metadata: map[string]string{
			"query-id": queryID,
			"rows":     fmt.Sprint(len(result.Rows)),
		},
	})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload export: %w", err)
	}
	if info.Key == "" {
		info.Key = key
	}
	if info.ContentType == "" {
		info.ContentType = codec.contentType
	}
	return info, nil
}
