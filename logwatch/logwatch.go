// Package logwatch enumerates CloudWatch log streams for named log groups,
// fetches their events and merges them into per-group tables keyed by a
// caller-chosen feature name.
package logwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// LogsAPI is the subset of the CloudWatch Logs API we use.
type LogsAPI interface {
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

var _ LogsAPI = (*cloudwatchlogs.Client)(nil)

// Event is a single log entry tagged with its source stream.
type Event struct {
	Timestamp time.Time
	Message   string
	Stream    string
}

// Group holds everything discovered about one log group: its stream
// descriptors and the union of events across those streams, each event
// tagged with the stream it came from.
type Group struct {
	LogGroupName string
	Streams      []types.LogStream
	Events       []Event
}

// GroupStats is one summary row per feature.
type GroupStats struct {
	Feature      string
	LogGroup     string
	StreamCount  int
	LatestStream string
}

// StatusError reports a log-service response that carried an unexpected
// HTTP status. The aggregator treats it as a per-stream diagnostic rather
// than a fatal failure.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request returned with status code %d", e.Code)
}

// Aggregator fetches and merges log events through a LogsAPI handle.
type Aggregator struct {
	client LogsAPI
	logger *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// New creates an Aggregator.
func New(client LogsAPI, opts ...Option) *Aggregator {
	a := &Aggregator{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListStreams returns every stream of a log group in the order the service
// reports them, following the continuation token until it is absent. A
// failure mid-pagination discards the partial result.
func (a *Aggregator) ListStreams(ctx context.Context, logGroup string) ([]types.LogStream, error) {
	var streams []types.LogStream
	var next *string
	for {
		out, err := a.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
			LogGroupName: aws.String(logGroup),
			NextToken:    next,
		})
		if err != nil {
			return nil, fmt.Errorf("describe streams of %s: %w", logGroup, err)
		}
		streams = append(streams, out.LogStreams...)
		if out.NextToken == nil || (next != nil && aws.ToString(out.NextToken) == aws.ToString(next)) {
			break
		}
		next = out.NextToken
	}
	return streams, nil
}

// Update discovers the streams of every named log group and merges their
// events into one table per group. groups maps a feature name to its log
// group name; the result is a freshly built map the caller owns, so no
// shared structure is mutated. A stream whose fetch fails with a
// StatusError is logged and skipped; any other failure aborts the update.
func (a *Aggregator) Update(ctx context.Context, groups map[string]string) (map[string]*Group, error) {
	result := make(map[string]*Group, len(groups))
	for _, feature := range sortedKeys(groups) {
		logGroup := groups[feature]
		a.logger.Debug("updating log group", "feature", feature, "log_group", logGroup)

		streams, err := a.ListStreams(ctx, logGroup)
		if err != nil {
			return nil, err
		}

		g := &Group{LogGroupName: logGroup, Streams: streams}
		for _, stream := range streams {
			events, err := a.GetEvents(ctx, logGroup, aws.ToString(stream.LogStreamName))
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) {
					a.logger.Error("skipping stream", "log_group", logGroup,
						"stream", aws.ToString(stream.LogStreamName), "error", err)
					continue
				}
				return nil, err
			}
			g.Events = append(g.Events, events...)
		}
		a.logger.Debug("log group updated", "feature", feature, "streams", len(streams), "events", len(g.Events))
		result[feature] = g
	}
	return result, nil
}

// Stats produces one summary row per feature, ordered by feature name. The
// latest stream is the one with the maximum last-event timestamp, found by
// a full scan; when timestamps tie, whichever stream the scan saw first
// wins, and callers must not rely on that choice.
func (a *Aggregator) Stats(groups map[string]*Group) []GroupStats {
	stats := make([]GroupStats, 0, len(groups))
	for _, feature := range sortedKeys(groups) {
		g := groups[feature]
		stats = append(stats, GroupStats{
			Feature:      feature,
			LogGroup:     g.LogGroupName,
			StreamCount:  len(g.Streams),
			LatestStream: latestStream(g.Streams),
		})
	}
	return stats
}

func latestStream(streams []types.LogStream) string {
	var name string
	var max int64 = -1
	for _, s := range streams {
		if ts := aws.ToInt64(s.LastEventTimestamp); ts > max {
			max = ts
			name = aws.ToString(s.LogStreamName)
		}
	}
	return name
}

// GetEvents fetches one stream's events oldest-first and tags each row with
// the stream name. A response with an unexpected HTTP status is reported as
// a *StatusError carrying the code.
func (a *Aggregator) GetEvents(ctx context.Context, logGroup, stream string) ([]Event, error) {
	out, err := a.client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(stream),
		StartFromHead: aws.Bool(true),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return nil, &StatusError{Code: respErr.HTTPStatusCode()}
		}
		return nil, fmt.Errorf("get events of %s/%s: %w", logGroup, stream, err)
	}

	events := make([]Event, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, Event{
			Timestamp: time.Unix(0, aws.ToInt64(e.Timestamp)*int64(time.Millisecond)),
			Message:   aws.ToString(e.Message),
			Stream:    stream,
		})
	}
	return events, nil
}

// EventsForFeature fetches the events of a feature's most recently active
// stream, as reported by a Stats row. Fetch failures are logged and an
// empty slice returned.
func (a *Aggregator) EventsForFeature(ctx context.Context, stats []GroupStats, feature string) []Event {
	for _, row := range stats {
		if row.Feature != feature {
			continue
		}
		events, err := a.GetEvents(ctx, row.LogGroup, row.LatestStream)
		if err != nil {
			a.logger.Error("event fetch failed", "feature", feature,
				"log_group", row.LogGroup, "stream", row.LatestStream, "error", err)
			return nil
		}
		return events
	}
	a.logger.Error("feature not found in stats", "feature", feature)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
