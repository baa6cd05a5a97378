// Package archive keeps a copy of every uploaded import file in S3 so an
// import can be audited or replayed after the session is gone. Archiving is
// best-effort; a failed upload never blocks the import itself.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/contact-engine/internal/pkg/logger"
)

// Uploader writes uploaded files to an S3 bucket, keyed by date and session.
type Uploader struct {
	client *s3.Client
	bucket string
}

// New creates an Uploader. profile may be empty to use the default
// credential chain.
func New(ctx context.Context, bucket, region, profile string) (*Uploader, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Save stores one uploaded file under imports/YYYY/MM/DD/<session>/<name>.
func (u *Uploader) Save(ctx context.Context, sessionID, filename string, data []byte) error {
	key := fmt.Sprintf("imports/%s/%s/%s",
		time.Now().UTC().Format("2006/01/02"),
		sessionID,
		path.Base(filename),
	)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}

	logger.Debug("archived upload", "bucket", u.bucket, "key", key, "bytes", len(data))
	return nil
}

// SaveAsync archives in the background and only logs on failure. The API
// handler calls this so upload latency never includes S3.
func (u *Uploader) SaveAsync(sessionID, filename string, data []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := u.Save(ctx, sessionID, filename, data); err != nil {
			logger.Warn("archiving upload failed", "session", sessionID, "error", err.Error())
		}
	}()
}
