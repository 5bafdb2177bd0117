package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	log "github.com/sirupsen/logrus"
)

// DefaultRegion is the region used for requests (and bucket creation) when
// nothing else is configured.
const DefaultRegion = "us-east-1"

// S3 error codes that mean "not there" rather than "something broke".
const (
	codeNotFound            = "NotFound"
	codeNoSuchWebsiteConfig = "NoSuchWebsiteConfiguration"
)

const maxRetries = 2

// Credentials holds the already resolved connection settings.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Profile         string
	Region          string
}

// S3 implements ObjectStore on top of aws-sdk-go.
type S3 struct {
	svc        s3iface.S3API
	uploader   s3manageriface.UploaderAPI
	downloader s3manageriface.DownloaderAPI
}

var _ ObjectStore = (*S3)(nil)

// NewS3 opens an AWS session. Explicit keys win; after them come the
// environment, the shared credentials file and finally the EC2 role.
func NewS3(c Credentials) (*S3, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	var providers []credentials.Provider
	if c.AccessKeyID != "" {
		providers = append(providers, &credentials.StaticProvider{Value: credentials.Value{
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
		}})
	}
	providers = append(providers,
		&credentials.EnvProvider{},
		&credentials.SharedCredentialsProvider{Profile: c.Profile},
		&ec2rolecreds.EC2RoleProvider{Client: ec2metadata.New(sess)},
	)
	creds := credentials.NewChainCredentials(providers)
	if _, err = creds.Get(); err != nil {
		return nil, fmt.Errorf("unable to initialize AWS credentials - please check environment: %w", err)
	}

	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	retries := maxRetries
	svc := s3.New(sess, &aws.Config{
		Credentials: creds,
		Region:      aws.String(region),
		MaxRetries:  &retries,
	})

	return NewS3WithClient(svc), nil
}

// NewS3WithClient builds the store around an existing client. Tests use it
// to plug in fakes.
func NewS3WithClient(svc s3iface.S3API) *S3 {
	return &S3{
		svc: svc,
		uploader: s3manager.NewUploaderWithClient(svc, func(u *s3manager.Uploader) {
			u.LeavePartsOnError = false
		}),
		downloader: s3manager.NewDownloaderWithClient(svc),
	}
}

// BucketExists reports whether the bucket is there and reachable.
func (c *S3) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.svc.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if hasCode(err, codeNotFound, s3.ErrCodeNoSuchBucket) {
		log.WithField("bucket", bucket).Debug("Bucket not found")
		return false, nil
	}

	return false, bucketErr("HeadBucket", bucket, err)
}

// ListObjects returns every object of the bucket, walking all pages.
func (c *S3) ListObjects(ctx context.Context, bucket string) (objs []Object, err error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	err = c.svc.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, item := range page.Contents {
			objs = append(objs, Object{Key: aws.StringValue(item.Key), Size: aws.Int64Value(item.Size)})
		}
		return true
	})
	if err != nil {
		if hasCode(err, s3.ErrCodeNoSuchBucket) {
			err = ErrBucketNotFound
		}
		return nil, bucketErr("ListObjectsV2", bucket, err)
	}
	log.WithFields(log.Fields{"bucket": bucket, "count": len(objs)}).Debug("Listed objects")

	return objs, nil
}

// PutObject uploads body under key.
func (c *S3) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.uploader.UploadWithContext(ctx, input); err != nil {
		return objectErr("PutObject", bucket, key, err)
	}

	return nil
}

// Download writes the object content to w.
func (c *S3) Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	n, err := c.downloader.DownloadWithContext(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if hasCode(err, s3.ErrCodeNoSuchKey) {
			err = ErrObjectNotFound
		}
		return n, objectErr("GetObject", bucket, key, err)
	}

	return n, nil
}

// DeleteObject removes a single object.
func (c *S3) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := c.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return objectErr("DeleteObject", bucket, key, err)
	}

	return nil
}

// CreateBucket creates the bucket in region. us-east-1 must not be sent as a
// location constraint.
func (c *S3) CreateBucket(ctx context.Context, bucket, region string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != DefaultRegion {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(region),
		}
	}
	if _, err := c.svc.CreateBucketWithContext(ctx, input); err != nil {
		if hasCode(err, s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou) {
			err = fmt.Errorf("%w: %v", ErrBucketExists, err)
		}
		return bucketErr("CreateBucket", bucket, err)
	}

	return nil
}

// ConfigureWebsite enables static website hosting on the bucket.
func (c *S3) ConfigureWebsite(ctx context.Context, bucket, indexKey, errorKey string) error {
	_, err := c.svc.PutBucketWebsiteWithContext(ctx, &s3.PutBucketWebsiteInput{
		Bucket: aws.String(bucket),
		WebsiteConfiguration: &s3.WebsiteConfiguration{
			IndexDocument: &s3.IndexDocument{Suffix: aws.String(indexKey)},
			ErrorDocument: &s3.ErrorDocument{Key: aws.String(errorKey)},
		},
	})
	if err != nil {
		return bucketErr("PutBucketWebsite", bucket, err)
	}

	return nil
}

// IsWebsiteConfigured reports whether the bucket already has a website
// configuration.
func (c *S3) IsWebsiteConfigured(ctx context.Context, bucket string) (bool, error) {
	_, err := c.svc.GetBucketWebsiteWithContext(ctx, &s3.GetBucketWebsiteInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if hasCode(err, codeNoSuchWebsiteConfig) {
		return false, nil
	}

	return false, bucketErr("GetBucketWebsite", bucket, err)
}

func hasCode(err error, codes ...string) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	for _, code := range codes {
		if aerr.Code() == code {
			return true
		}
	}

	return false
}
