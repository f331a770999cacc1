// Package session builds authenticated clients for the three AWS services
// the toolkit talks to: the Cognito identity provider, S3 object storage,
// and CloudWatch Logs. Credentials missing from the Config are solicited
// with a blocking prompt before any client is constructed.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "ap-southeast-2"

// Config controls session construction. Credentials are used verbatim:
// nothing validates their format, and an empty value typed at the prompt is
// passed through so that failures surface on first use of a handle.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string

	// Stdin and Stdout back the credential prompt. They default to
	// os.Stdin and os.Stdout.
	Stdin  io.Reader
	Stdout io.Writer
}

// Handles carries one client per remote service. A Handles value is built
// once per process, is immutable afterwards and needs no teardown.
type Handles struct {
	Identity *cognitoidentityprovider.Client
	Storage  *s3.Client
	Logs     *cloudwatchlogs.Client
}

// New resolves credentials, loads AWS configuration for the requested
// region and returns clients for the three services. It blocks on Stdin
// when either credential is empty. Authentication is not verified here; a
// bad key pair fails on the first call made through a handle.
func New(ctx context.Context, cfg Config) (*Handles, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	in := bufio.NewReader(cfg.Stdin)
	if cfg.AccessKey == "" {
		v, err := prompt(in, cfg.Stdout, "AWS Access Key: ")
		if err != nil {
			return nil, err
		}
		cfg.AccessKey = v
	}
	if cfg.SecretKey == "" {
		v, err := prompt(in, cfg.Stdout, "AWS Secret Access Key: ")
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = v
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Handles{
		Identity: cognitoidentityprovider.NewFromConfig(awsCfg),
		Storage:  s3.NewFromConfig(awsCfg),
		Logs:     cloudwatchlogs.NewFromConfig(awsCfg),
	}, nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(out, label); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(line), nil
}
