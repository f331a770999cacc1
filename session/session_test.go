package session_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/featurelab/awskit/session"
)

func TestNewPromptsForMissingCredentials(t *testing.T) {
	in := strings.NewReader("AKIAEXAMPLE\nsecret-value\n")
	var out bytes.Buffer

	h, err := session.New(context.Background(), session.Config{
		Stdin:  in,
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	prompts := out.String()
	if !strings.Contains(prompts, "AWS Access Key: ") {
		t.Fatalf("missing access key prompt in %q", prompts)
	}
	if !strings.Contains(prompts, "AWS Secret Access Key: ") {
		t.Fatalf("missing secret key prompt in %q", prompts)
	}
	if h.Identity == nil || h.Storage == nil || h.Logs == nil {
		t.Fatalf("handles incomplete: %+v", h)
	}
}

func TestNewSkipsPromptWhenCredentialsProvided(t *testing.T) {
	var out bytes.Buffer

	h, err := session.New(context.Background(), session.Config{
		AccessKey: "AKIAEXAMPLE",
		SecretKey: "secret-value",
		Stdin:     strings.NewReader(""),
		Stdout:    &out,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected prompt output: %q", out.String())
	}
	if h.Storage == nil {
		t.Fatal("storage handle not built")
	}
}

func TestNewAppliesRegion(t *testing.T) {
	tests := []struct {
		name   string
		region string
		want   string
	}{
		{name: "explicit region", region: "us-west-2", want: "us-west-2"},
		{name: "default region", region: "", want: session.DefaultRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := session.New(context.Background(), session.Config{
				AccessKey: "AKIAEXAMPLE",
				SecretKey: "secret-value",
				Region:    tt.region,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := h.Storage.Options().Region; got != tt.want {
				t.Fatalf("storage region = %q, want %q", got, tt.want)
			}
			if got := h.Logs.Options().Region; got != tt.want {
				t.Fatalf("logs region = %q, want %q", got, tt.want)
			}
		})
	}
}

// Empty input at the prompt is accepted as-is: credential validation is
// deferred to the first call made through a handle.
func TestNewAcceptsEmptyPromptInput(t *testing.T) {
	h, err := session.New(context.Background(), session.Config{
		Stdin:  strings.NewReader("\n\n"),
		Stdout: &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if h.Identity == nil {
		t.Fatal("identity handle not built")
	}
}
