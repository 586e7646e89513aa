// Package snapshot loads canonical graph snapshots. A snapshot location
// is either a local file path or a gs://bucket/object URI; either way the
// loader hands back the raw JSON document for parsing.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

const gcsPrefix = "gs://"

type Source interface {
	Load(ctx context.Context) ([]byte, error)
	Location() string
}

// NewSource picks the loader from the location shape.
func NewSource(log *logger.Logger, location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("snapshot: empty location")
	}
	if strings.HasPrefix(location, gcsPrefix) {
		return newGCSSource(log, location)
	}
	return &fileSource{path: location}, nil
}

type fileSource struct {
	path string
}

func (s *fileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	return raw, nil
}

func (s *fileSource) Location() string { return s.path }

type gcsSource struct {
	log    *logger.Logger
	bucket string
	object string
	uri    string
}

func newGCSSource(log *logger.Logger, uri string) (*gcsSource, error) {
	rest := strings.TrimPrefix(uri, gcsPrefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("snapshot: malformed gcs uri %q", uri)
	}
	return &gcsSource{log: log, bucket: parts[0], object: parts[1], uri: uri}, nil
}

func (s *gcsSource) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := storage.NewClient(ctx, append(credsOptionsFromEnv(), option.WithScopes(storage.ScopeReadOnly))...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: storage client: %w", err)
	}
	defer func() { _ = client.Close() }()

	r, err := client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", s.uri, err)
	}
	defer func() { _ = r.Close() }()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", s.uri, err)
	}
	if s.log != nil {
		s.log.Debug("loaded canonical snapshot", "uri", s.uri, "bytes", len(raw))
	}
	return raw, nil
}

func (s *gcsSource) Location() string { return s.uri }

func credsOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
