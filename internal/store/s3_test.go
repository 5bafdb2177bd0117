package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API

	headErr    error
	listErr    error
	pages      [][]*s3.Object
	createErr  error
	websiteErr error

	created   *s3.CreateBucketInput
	website   *s3.PutBucketWebsiteInput
	deleted   []string
	listCalls int
}

func (f *fakeS3) HeadBucketWithContext(_ aws.Context, _ *s3.HeadBucketInput, _ ...request.Option) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, _ *s3.ListObjectsV2Input,
	fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if f.listErr != nil {
		return f.listErr
	}
	for i, page := range f.pages {
		f.listCalls++
		if !fn(&s3.ListObjectsV2Output{Contents: page}, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) CreateBucketWithContext(_ aws.Context, in *s3.CreateBucketInput, _ ...request.Option) (*s3.CreateBucketOutput, error) {
	f.created = in
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeS3) PutBucketWebsiteWithContext(_ aws.Context, in *s3.PutBucketWebsiteInput, _ ...request.Option) (*s3.PutBucketWebsiteOutput, error) {
	f.website = in
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *fakeS3) GetBucketWebsiteWithContext(_ aws.Context, _ *s3.GetBucketWebsiteInput, _ ...request.Option) (*s3.GetBucketWebsiteOutput, error) {
	return &s3.GetBucketWebsiteOutput{}, f.websiteErr
}

type fakeUploader struct {
	input *s3manager.UploadInput
	body  []byte
	err   error
}

func (u *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return u.UploadWithContext(context.Background(), in, opts...)
}

func (u *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	u.input = in
	u.body, _ = io.ReadAll(in.Body)
	return &s3manager.UploadOutput{}, u.err
}

type fakeDownloader struct {
	content []byte
	err     error
}

func (d *fakeDownloader) Download(w io.WriterAt, in *s3.GetObjectInput, opts ...func(*s3manager.Downloader)) (int64, error) {
	return d.DownloadWithContext(context.Background(), w, in, opts...)
}

func (d *fakeDownloader) DownloadWithContext(_ aws.Context, w io.WriterAt, _ *s3.GetObjectInput, _ ...func(*s3manager.Downloader)) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	n, err := w.WriteAt(d.content, 0)
	return int64(n), err
}

func TestS3BucketExists(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		exp     bool
		wantErr bool
	}{
		{name: "Exists"},
		{name: "NotFound", err: awserr.New("NotFound", "Not Found", nil), exp: false},
		{name: "NoSuchBucket", err: awserr.New(s3.ErrCodeNoSuchBucket, "gone", nil), exp: false},
		{name: "Forbidden", err: awserr.New("Forbidden", "Forbidden", nil), wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			c := NewS3WithClient(&fakeS3{headErr: test.err})
			ok, err := c.BucketExists(context.Background(), "bucket")
			if test.wantErr {
				var serr *Error
				require.True(t, errors.As(err, &serr))
				assert.Equal(t, "HeadBucket", serr.Op)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.err == nil, ok)
		})
	}
}

func TestS3ListObjectsWalksAllPages(t *testing.T) {
	fake := &fakeS3{pages: [][]*s3.Object{
		{{Key: aws.String("a.html"), Size: aws.Int64(1)}, {Key: aws.String("b.html"), Size: aws.Int64(2)}},
		{{Key: aws.String("css/c.css"), Size: aws.Int64(3)}},
	}}
	objs, err := NewS3WithClient(fake).ListObjects(context.Background(), "bucket")
	require.NoError(t, err)

	assert.Equal(t, []Object{{"a.html", 1}, {"b.html", 2}, {"css/c.css", 3}}, objs)
	assert.Equal(t, 2, fake.listCalls)
}

func TestS3ListObjectsMissingBucket(t *testing.T) {
	fake := &fakeS3{listErr: awserr.New(s3.ErrCodeNoSuchBucket, "gone", nil)}
	_, err := NewS3WithClient(fake).ListObjects(context.Background(), "bucket")
	assert.True(t, errors.Is(err, ErrBucketNotFound))
}

func TestS3PutObject(t *testing.T) {
	up := &fakeUploader{}
	c := NewS3WithClient(&fakeS3{})
	c.uploader = up

	err := c.PutObject(context.Background(), "bucket", "css/b.css", stringsReader("body{}"), "text/css")
	require.NoError(t, err)
	assert.Equal(t, "bucket", aws.StringValue(up.input.Bucket))
	assert.Equal(t, "css/b.css", aws.StringValue(up.input.Key))
	assert.Equal(t, "text/css", aws.StringValue(up.input.ContentType))
	assert.Equal(t, "body{}", string(up.body))

	up.err = errors.New("boom")
	err = c.PutObject(context.Background(), "bucket", "x", stringsReader(""), "")
	assert.EqualError(t, err, "s3.PutObject bucket/x: boom")
}

func TestS3Download(t *testing.T) {
	c := NewS3WithClient(&fakeS3{})
	c.downloader = &fakeDownloader{content: []byte("hello")}

	buf := aws.NewWriteAtBuffer(nil)
	n, err := c.Download(context.Background(), "bucket", "a.html", buf)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, "hello", string(buf.Bytes()))

	c.downloader = &fakeDownloader{err: awserr.New(s3.ErrCodeNoSuchKey, "nope", nil)}
	_, err = c.Download(context.Background(), "bucket", "a.html", buf)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestS3DeleteObject(t *testing.T) {
	fake := &fakeS3{}
	require.NoError(t, NewS3WithClient(fake).DeleteObject(context.Background(), "bucket", "old.html"))
	assert.Equal(t, []string{"old.html"}, fake.deleted)
}

func TestS3CreateBucketLocationConstraint(t *testing.T) {
	fake := &fakeS3{}
	c := NewS3WithClient(fake)

	require.NoError(t, c.CreateBucket(context.Background(), "bucket", DefaultRegion))
	assert.Nil(t, fake.created.CreateBucketConfiguration)

	require.NoError(t, c.CreateBucket(context.Background(), "bucket", "eu-west-1"))
	require.NotNil(t, fake.created.CreateBucketConfiguration)
	assert.Equal(t, "eu-west-1", aws.StringValue(fake.created.CreateBucketConfiguration.LocationConstraint))

	fake.createErr = awserr.New(s3.ErrCodeBucketAlreadyOwnedByYou, "yours", nil)
	err := c.CreateBucket(context.Background(), "bucket", "eu-west-1")
	assert.True(t, errors.Is(err, ErrBucketExists))
}

func TestS3Website(t *testing.T) {
	fake := &fakeS3{websiteErr: awserr.New("NoSuchWebsiteConfiguration", "none", nil)}
	c := NewS3WithClient(fake)

	ok, err := c.IsWebsiteConfigured(context.Background(), "bucket")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ConfigureWebsite(context.Background(), "bucket", "blog/index.html", "blog/404.html"))
	cfg := fake.website.WebsiteConfiguration
	assert.Equal(t, "blog/index.html", aws.StringValue(cfg.IndexDocument.Suffix))
	assert.Equal(t, "blog/404.html", aws.StringValue(cfg.ErrorDocument.Key))

	fake.websiteErr = nil
	ok, err = c.IsWebsiteConfigured(context.Background(), "bucket")
	require.NoError(t, err)
	assert.True(t, ok)

	fake.websiteErr = awserr.New("AccessDenied", "denied", nil)
	_, err = c.IsWebsiteConfigured(context.Background(), "bucket")
	assert.Error(t, err)
}
