package store

import (
	"context"
	"io"
	"sort"
	"sync"
)

// Memory is an ObjectStore kept entirely in memory, used as the store fake
// in tests. Listings are returned in key order. Put, Get, Keys, ContentType
// and Website inspect or seed it directly.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
}

type memBucket struct {
	region   string
	objects  map[string][]byte
	types    map[string]string
	indexKey string
	errorKey string
}

var _ ObjectStore = (*Memory)(nil)

// NewMemory returns a Memory store holding the given (empty) buckets.
func NewMemory(buckets ...string) *Memory {
	m := &Memory{buckets: map[string]*memBucket{}}
	for _, b := range buckets {
		m.buckets[b] = newMemBucket("")
	}

	return m
}

func newMemBucket(region string) *memBucket {
	return &memBucket{region: region, objects: map[string][]byte{}, types: map[string]string{}}
}

// Put stores data directly, bypassing the ObjectStore interface. It creates
// the bucket when missing.
func (m *Memory) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = newMemBucket("")
		m.buckets[bucket] = b
	}
	b.objects[key] = append([]byte(nil), data...)
}

// Get returns the stored content of key.
func (m *Memory) Get(bucket, key string) (data []byte, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, found := m.buckets[bucket]; found {
		data, ok = b.objects[key]
	}

	return
}

// ContentType returns the content type key was uploaded with.
func (m *Memory) ContentType(bucket, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[bucket]; ok {
		return b.types[key]
	}

	return ""
}

// Keys returns the sorted object keys of bucket.
func (m *Memory) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.keys(bucket)
}

// Website returns the website configuration of bucket, if any.
func (m *Memory) Website(bucket string) (indexKey, errorKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[bucket]; ok {
		return b.indexKey, b.errorKey
	}

	return "", ""
}

func (m *Memory) keys(bucket string) []string {
	b, ok := m.buckets[bucket]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func (m *Memory) bucket(op, name string) (*memBucket, error) {
	b, ok := m.buckets[name]
	if !ok {
		return nil, bucketErr(op, name, ErrBucketNotFound)
	}

	return b, nil
}

func (m *Memory) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *Memory) ListObjects(_ context.Context, bucket string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket("ListObjectsV2", bucket)
	if err != nil {
		return nil, err
	}
	var objs []Object
	for _, k := range m.keys(bucket) {
		objs = append(objs, Object{Key: k, Size: int64(len(b.objects[k]))})
	}

	return objs, nil
}

func (m *Memory) PutObject(_ context.Context, bucket, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return objectErr("PutObject", bucket, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket("PutObject", bucket)
	if err != nil {
		return err
	}
	b.objects[key] = data
	b.types[key] = contentType

	return nil
}

func (m *Memory) Download(_ context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	m.mu.Lock()
	b, err := m.bucket("GetObject", bucket)
	var data []byte
	var ok bool
	if err == nil {
		data, ok = b.objects[key]
	}
	m.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, objectErr("GetObject", bucket, key, ErrObjectNotFound)
	}
	n, err := w.WriteAt(data, 0)
	if err != nil {
		return int64(n), objectErr("GetObject", bucket, key, err)
	}

	return int64(n), nil
}

func (m *Memory) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket("DeleteObject", bucket)
	if err != nil {
		return err
	}
	delete(b.objects, key)
	delete(b.types, key)

	return nil
}

func (m *Memory) CreateBucket(_ context.Context, bucket, region string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket]; ok {
		return bucketErr("CreateBucket", bucket, ErrBucketExists)
	}
	m.buckets[bucket] = newMemBucket(region)

	return nil
}

func (m *Memory) ConfigureWebsite(_ context.Context, bucket, indexKey, errorKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket("PutBucketWebsite", bucket)
	if err != nil {
		return err
	}
	b.indexKey, b.errorKey = indexKey, errorKey

	return nil
}

func (m *Memory) IsWebsiteConfigured(_ context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket("GetBucketWebsite", bucket)
	if err != nil {
		return false, err
	}

	return b.indexKey != "", nil
}
