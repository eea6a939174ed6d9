// Package export writes CSV exports to a directory or an S3 prefix.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
)

// Sink stores named export files. Names are slash separated and relative to
// the sink's root.
type Sink interface {
	Write(ctx context.Context, name string, write func(io.Writer) error) error
	// Location is where name ends up, for logging.
	Location(name string) string
}

type FileSink struct {
	fs   afero.Fs
	base string
}

func NewFileSink(fs afero.Fs, base string) *FileSink {
	return &FileSink{fs: fs, base: base}
}

func (s *FileSink) Location(name string) string {
	return filepath.Join(s.base, filepath.FromSlash(name))
}

// Write creates missing directories. A failed write leaves no file behind.
func (s *FileSink) Write(_ context.Context, name string, write func(io.Writer) error) error {
	p := s.Location(name)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	if err := write(f); err != nil {
		f.Close()
		s.fs.Remove(p)
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	return nil
}

type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *S3Sink) Location(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *S3Sink) Write(ctx context.Context, name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("write %s: %w", s.Location(name), err)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", s.Location(name), err)
	}
	return nil
}

// Open returns an S3 sink for s3://bucket/prefix destinations, using the
// default AWS credential chain, and a local directory sink otherwise.
func Open(ctx context.Context, dest string) (Sink, error) {
	if !strings.HasPrefix(dest, "s3://") {
		return NewFileSink(afero.NewOsFs(), dest), nil
	}
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid s3 destination %q", dest)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Sink(s3.NewFromConfig(cfg), u.Host, u.Path), nil
}

// WriteCSV writes rows with a header taken from their csv tags.
func WriteCSV[T any](ctx context.Context, sink Sink, name string, rows []T) error {
	return sink.Write(ctx, name, func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
}
