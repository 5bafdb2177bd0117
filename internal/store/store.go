// Package store defines the object storage port used by the deployer and its
// implementations: S3 (the real thing), Memory and a dry-run decorator.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ObjectStore is the minimal set of bucket operations a deploy needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	ListObjects(ctx context.Context, bucket string) ([]Object, error)
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	CreateBucket(ctx context.Context, bucket, region string) error
	ConfigureWebsite(ctx context.Context, bucket, indexKey, errorKey string) error
	IsWebsiteConfigured(ctx context.Context, bucket string) (bool, error)
}

// Object is a remote object as reported by a listing.
type Object struct {
	Key  string
	Size int64
}

// Sentinel errors, usable with errors.Is.
var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrBucketExists   = errors.New("bucket already exists")
)

// Error wraps a failed storage call with the operation and the bucket/key it
// was made against.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func bucketErr(op, bucket string, err error) error {
	return &Error{Op: op, Bucket: bucket, Err: err}
}

func objectErr(op, bucket, key string, err error) error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: err}
}
