package sink

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
	"github.com/YuminosukeSato/skbatch/pkg/log"
)

// S3Putter is the subset of the S3 API the sink needs. *s3.S3 implements it.
type S3Putter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// S3Sink uploads gob snapshots to s3://bucket/key destinations.
// A PutObject replaces the object in one step, so no temporary key is used.
type S3Sink struct {
	client S3Putter
	logger log.Logger
}

// NewS3Sink returns a sink using client.
func NewS3Sink(client S3Putter, logger log.Logger) *S3Sink {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &S3Sink{
		client: client,
		logger: logger.With(log.ComponentKey, "sink", log.SinkKindKey, "s3"),
	}
}

// NewS3SinkForRegion builds an S3 client from the default AWS credential
// chain for regionName.
func NewS3SinkForRegion(regionName string, logger log.Logger) (*S3Sink, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(regionName)})
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}
	return NewS3Sink(s3.New(sess), logger), nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(destination string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(destination, "s3://")
	if !ok {
		return "", "", errors.Newf("not an s3 url: %q", destination)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.Newf("s3 url must be s3://bucket/key, got %q", destination)
	}
	return bucket, key, nil
}

// Save implements Sink.
func (s *S3Sink) Save(ctx context.Context, learner interface{}, destination string) error {
	bucket, key, err := ParseS3URL(destination)
	if err != nil {
		return errors.NewPersistenceError(destination, err)
	}
	data, err := encode(learner, destination)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return errors.NewPersistenceError(destination, errors.Wrap(err, "put object"))
	}

	s.logger.Info("Model snapshot uploaded",
		log.OperationKey, log.OperationSave,
		log.DestinationKey, destination,
		log.BytesKey, len(data),
	)
	return nil
}
