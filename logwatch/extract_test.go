package logwatch_test

import (
	"testing"

	"github.com/featurelab/awskit/logwatch"
)

func TestExtractFirstValue(t *testing.T) {
	tests := []struct {
		name      string
		events    []logwatch.Event
		expr      string
		want      string
		wantFound bool
		wantErr   bool
	}{
		{
			name: "extracts from json message",
			events: []logwatch.Event{
				{Message: `{"level":"info","request_id":""}`},
				{Message: `{"level":"error","request_id":"abc-123"}`},
			},
			expr:      "request_id",
			want:      "abc-123",
			wantFound: true,
		},
		{
			name: "non-json message wrapped as message field",
			events: []logwatch.Event{
				{Message: "plain text line"},
			},
			expr:      "message",
			want:      "plain text line",
			wantFound: true,
		},
		{
			name: "array result uses first element",
			events: []logwatch.Event{
				{Message: `{"ids":["first","second"]}`},
			},
			expr:      "ids",
			want:      "first",
			wantFound: true,
		},
		{
			name: "non-string scalar marshalled",
			events: []logwatch.Event{
				{Message: `{"count":42}`},
			},
			expr:      "count",
			want:      "42",
			wantFound: true,
		},
		{
			name: "nothing matches",
			events: []logwatch.Event{
				{Message: `{"level":"info"}`},
			},
			expr:      "request_id",
			wantFound: false,
		},
		{
			name: "invalid expression",
			events: []logwatch.Event{
				{Message: `{"level":"info"}`},
			},
			expr:    "[invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := logwatch.ExtractFirstValue(tt.events, tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if got != tt.want {
				t.Fatalf("value = %q, want %q", got, tt.want)
			}
		})
	}
}
