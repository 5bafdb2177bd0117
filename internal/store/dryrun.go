package store

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
)

// DryRun wraps an ObjectStore, passing reads through and only logging the
// writes it would have made.
type DryRun struct {
	ObjectStore
}

var _ ObjectStore = DryRun{}

func (d DryRun) PutObject(_ context.Context, bucket, key string, _ io.Reader, contentType string) error {
	log.WithFields(log.Fields{"bucket": bucket, "type": contentType}).Debugf("Pretending to upload %s", key)
	return nil
}

func (d DryRun) DeleteObject(_ context.Context, bucket, key string) error {
	log.WithField("bucket", bucket).Debugf("Pretending to delete %s", key)
	return nil
}

func (d DryRun) CreateBucket(_ context.Context, bucket, region string) error {
	log.WithField("region", region).Infof("Pretending to create bucket %s", bucket)
	return nil
}

func (d DryRun) ConfigureWebsite(_ context.Context, bucket, indexKey, errorKey string) error {
	log.WithFields(log.Fields{"index": indexKey, "error": errorKey}).Infof("Pretending to configure website on %s", bucket)
	return nil
}
