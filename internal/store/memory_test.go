package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("site")

	ok, err := m.BucketExists(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.PutObject(ctx, "site", "b.html", stringsReader("bee"), "text/html"))
	require.NoError(t, m.PutObject(ctx, "site", "a.html", stringsReader("ay"), "text/html"))

	objs, err := m.ListObjects(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, []Object{{"a.html", 2}, {"b.html", 3}}, objs)
	assert.Equal(t, "text/html", m.ContentType("site", "a.html"))

	buf := aws.NewWriteAtBuffer(nil)
	_, err = m.Download(ctx, "site", "b.html", buf)
	require.NoError(t, err)
	assert.Equal(t, "bee", string(buf.Bytes()))

	require.NoError(t, m.DeleteObject(ctx, "site", "a.html"))
	assert.Equal(t, []string{"b.html"}, m.Keys("site"))
}

func TestMemoryMissingBucket(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.BucketExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.ListObjects(ctx, "nope")
	assert.True(t, errors.Is(err, ErrBucketNotFound))

	err = m.PutObject(ctx, "nope", "a", stringsReader(""), "")
	assert.True(t, errors.Is(err, ErrBucketNotFound))

	_, err = m.Download(ctx, "nope", "a", aws.NewWriteAtBuffer(nil))
	assert.True(t, errors.Is(err, ErrBucketNotFound))
}

func TestMemoryBucketAndWebsite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateBucket(ctx, "site", "eu-west-1"))
	assert.True(t, errors.Is(m.CreateBucket(ctx, "site", "eu-west-1"), ErrBucketExists))

	ok, err := m.IsWebsiteConfigured(ctx, "site")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.ConfigureWebsite(ctx, "site", "index.html", "404.html"))
	ok, err = m.IsWebsiteConfigured(ctx, "site")
	require.NoError(t, err)
	assert.True(t, ok)

	index, errPage := m.Website("site")
	assert.Equal(t, "index.html", index)
	assert.Equal(t, "404.html", errPage)
}

func TestMemoryDownloadMissingKey(t *testing.T) {
	m := NewMemory("site")
	_, err := m.Download(context.Background(), "site", "nope", aws.NewWriteAtBuffer(nil))
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestDryRunLeavesStoreAlone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("site")
	m.Put("site", "old.html", []byte("old"))
	d := DryRun{ObjectStore: m}

	require.NoError(t, d.PutObject(ctx, "site", "a.html", stringsReader("a"), "text/html"))
	require.NoError(t, d.DeleteObject(ctx, "site", "old.html"))
	require.NoError(t, d.CreateBucket(ctx, "other", ""))
	require.NoError(t, d.ConfigureWebsite(ctx, "site", "index.html", "404.html"))

	assert.Equal(t, []string{"old.html"}, m.Keys("site"))
	ok, _ := m.BucketExists(ctx, "other")
	assert.False(t, ok)
	configured, _ := d.IsWebsiteConfigured(ctx, "site")
	assert.False(t, configured)

	objs, err := d.ListObjects(ctx, "site")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}
