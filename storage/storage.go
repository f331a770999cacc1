// Package storage wraps S3 object access: listing, size queries and
// JSON/CSV round-trips. Every operation takes an explicit bucket and key so
// one Accessor can serve any number of buckets.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"

	"github.com/featurelab/awskit/table"
)

// Unit selects the unit for object size queries. Unknown values fall back
// to bytes.
type Unit string

const (
	UnitMB    Unit = "MB"
	UnitKB    Unit = "kB"
	UnitBytes Unit = "bytes"
)

// ObjectSize is one row of a size report.
type ObjectSize struct {
	Key    string
	SizeMB float64
}

// Accessor performs object storage operations through an S3API handle.
type Accessor struct {
	api    S3API
	logger *slog.Logger
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Accessor) { a.logger = l }
}

// New returns an Accessor backed by the given S3 API handle.
func New(api S3API, opts ...Option) *Accessor {
	a := &Accessor{api: api, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// List returns the keys under prefix in order. Keys ending in "/" denote
// directories and are excluded unless includeDirs is set. An empty result
// is not an error; a diagnostic is logged and an empty slice returned.
func (a *Accessor) List(ctx context.Context, bucket, prefix string, includeDirs bool) ([]string, error) {
	out, err := a.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") && !includeDirs {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		a.logger.Info("no objects found under prefix", "bucket", bucket, "prefix", prefix)
	}
	return keys, nil
}

// Size returns the content length of one object converted to the requested
// unit. A missing content length is reported as an error.
func (a *Accessor) Size(ctx context.Context, bucket, key string, unit Unit) (float64, error) {
	out, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("head %s/%s: %w", bucket, key, err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("head %s/%s: content length unavailable", bucket, key)
	}

	size := float64(aws.ToInt64(out.ContentLength))
	switch unit {
	case UnitMB:
		size /= 1024 * 1024
	case UnitKB:
		size /= 1024
	}
	return size, nil
}

// SizeTable reports the size of every listed key in MB, rounded to two
// decimal places, preserving key order.
func (a *Accessor) SizeTable(ctx context.Context, bucket string, keys []string) ([]ObjectSize, error) {
	sizes := make([]ObjectSize, 0, len(keys))
	for _, key := range keys {
		mb, err := a.Size(ctx, bucket, key, UnitMB)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, ObjectSize{Key: key, SizeMB: math.Round(mb*100) / 100})
	}
	return sizes, nil
}

// Read returns the raw contents of one object.
func (a *Accessor) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Write stores raw data under key with a sniffed content type.
func (a *Accessor) Write(ctx context.Context, bucket, key string, data []byte) error {
	return a.put(ctx, bucket, key, data, mimetype.Detect(data).String())
}

// ReadJSON decodes the object at key into v.
func (a *Accessor) ReadJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := a.Read(ctx, bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

// WriteJSON stores v under key as UTF-8 JSON.
func (a *Accessor) WriteJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return a.put(ctx, bucket, key, data, "application/json")
}

// ReadCSV loads a CSV object into a table.
func (a *Accessor) ReadCSV(ctx context.Context, bucket, key string) (*table.Table, error) {
	data, err := a.Read(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	t, err := table.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s/%s: %w", bucket, key, err)
	}
	return t, nil
}

// WriteCSV stores t under key as CSV text. Failures are logged, not
// returned: callers treating the upload as fire-and-forget match the
// behavior this method has always had, so the asymmetry with the read path
// is part of the contract.
func (a *Accessor) WriteCSV(ctx context.Context, bucket, key string, t *table.Table) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		a.logger.Error("csv encode failed", "bucket", bucket, "key", key, "error", err)
		return
	}
	if err := a.put(ctx, bucket, key, buf.Bytes(), "text/csv"); err != nil {
		a.logger.Error("csv upload failed", "bucket", bucket, "key", key, "error", err)
	}
}

// ReadJSONTable reads a JSON object and coerces it into a table. Storage
// failures propagate as-is; a coercion failure is logged and returned.
func (a *Accessor) ReadJSONTable(ctx context.Context, bucket, key string) (*table.Table, error) {
	var v any
	if err := a.ReadJSON(ctx, bucket, key, &v); err != nil {
		return nil, err
	}
	t, err := table.FromJSON(v)
	if err != nil {
		a.logger.Error("json to table conversion failed", "bucket", bucket, "key", key, "error", err)
		return nil, fmt.Errorf("tabulate %s/%s: %w", bucket, key, err)
	}
	return t, nil
}

func (a *Accessor) put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}
