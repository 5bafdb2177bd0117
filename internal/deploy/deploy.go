// Package deploy mirrors a local site to a bucket (push) and a bucket to a
// local directory (pull).
//
// A push uploads every local file, then, when deletion is enabled, removes
// the remote objects under the remote path that have no local counterpart.
// Objects outside the remote path are never touched. A pull only ever adds
// or overwrites local files.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/alexaandru/go3deploy/internal/config"
	"github.com/alexaandru/go3deploy/internal/site"
	"github.com/alexaandru/go3deploy/internal/store"
)

// Site is the local tree being pushed.
type Site interface {
	Files() ([]site.File, error)
	Open(f site.File) (afero.File, error)
}

// Reconciler drives push and pull against an object store.
type Reconciler struct {
	store  store.ObjectStore
	site   Site
	pullFs afero.Fs
	opts   config.Options
	out    io.Writer
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithOutput sets where progress marks go. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) {
		r.out = w
	}
}

// WithPullFs sets the filesystem pulled objects are written to. Defaults to
// the OS filesystem rooted at the configured pull directory.
func WithPullFs(fs afero.Fs) Option {
	return func(r *Reconciler) {
		r.pullFs = fs
	}
}

// New returns a Reconciler. opts must already be resolved. In dry run mode
// writes to the store are only logged and pulled files only land in memory.
func New(st store.ObjectStore, local Site, opts config.Options, options ...Option) *Reconciler {
	r := &Reconciler{store: st, site: local, opts: opts, out: os.Stdout}
	for _, o := range options {
		o(r)
	}
	if r.pullFs == nil {
		r.pullFs = afero.NewBasePathFs(afero.NewOsFs(), opts.PullDir)
	}
	if opts.IsDryRun() {
		r.store = store.DryRun{ObjectStore: r.store}
		r.pullFs = afero.NewCopyOnWriteFs(r.pullFs, afero.NewMemMapFs())
	}

	return r
}

// Result counts the operations that succeeded during a run.
type Result struct {
	Uploaded   int
	Deleted    int
	Downloaded int
	Failed     []string
}

// StatusMessage summarizes a push in one line.
func (res Result) StatusMessage(dryRun bool) string {
	msg := fmt.Sprintf("%s uploaded, %s deleted.", plural(res.Uploaded, "file"), plural(res.Deleted, "file"))
	if len(res.Failed) > 0 {
		msg += fmt.Sprintf(" %d failed.", len(res.Failed))
	}
	if dryRun {
		return "Dry run: " + msg
	}

	return "Success! " + msg
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Plan is what a push would do.
type Plan struct {
	Uploads []site.File
	Deletes []string
}

// Plan computes the uploads and deletions of a push without making them.
func (r *Reconciler) Plan(ctx context.Context) (*Plan, error) {
	ru := r.newRun()
	files, err := ru.localFiles()
	if err != nil {
		return nil, err
	}
	deletes, err := ru.deletableKeys(ctx)
	if err != nil {
		return nil, err
	}

	return &Plan{Uploads: files, Deletes: deletes}, nil
}

// Push uploads the site and, if enabled, deletes what is gone locally. A
// missing bucket is a *FatalError; failed transfers are collected into a
// *SyncError once everything else has been attempted.
func (r *Reconciler) Push(ctx context.Context) (Result, error) {
	if err := r.requireBucket(ctx); err != nil {
		return Result{}, err
	}

	ru := r.newRun()
	if err := ru.writeFiles(ctx); err != nil {
		return ru.res, err
	}
	if r.deleteFiles() {
		if err := ru.deleteFiles(ctx); err != nil {
			return ru.res, err
		}
	}
	log.Info(ru.res.StatusMessage(r.opts.IsDryRun()))

	configured, err := r.store.IsWebsiteConfigured(ctx, r.opts.BucketName)
	if err != nil {
		ru.fail(r.opts.BucketName, err)
	} else if !configured {
		if err = r.ConfigureWebsite(ctx); err != nil {
			ru.fail(r.opts.BucketName, err)
		}
	}

	return ru.res, ru.err()
}

// Pull copies every remote object into the pull directory, overwriting
// local copies. Local files missing remotely are left alone.
func (r *Reconciler) Pull(ctx context.Context) (Result, error) {
	if err := r.requireBucket(ctx); err != nil {
		return Result{}, err
	}

	ru := r.newRun()
	objs, err := ru.remoteObjects(ctx)
	if err != nil {
		return ru.res, err
	}
	for _, obj := range objs {
		if strings.HasSuffix(obj.Key, "/") {
			if err := r.pullFs.MkdirAll(obj.Key, 0o755); err != nil {
				ru.fail(obj.Key, err)
			}
			continue
		}
		if err := r.download(ctx, obj.Key); err != nil {
			ru.fail(obj.Key, err)
			continue
		}
		ru.res.Downloaded++
		ru.rep.say("Downloaded "+obj.Key, ".")
	}
	ru.rep.done()
	log.Infof("%s pulled from %s.", plural(ru.res.Downloaded, "file"), r.opts.BucketName)

	return ru.res, ru.err()
}

// AddBucket creates the bucket and sets it up for website hosting.
func (r *Reconciler) AddBucket(ctx context.Context) error {
	if err := r.store.CreateBucket(ctx, r.opts.BucketName, r.opts.Region); err != nil {
		return err
	}
	log.Infof("Bucket %s created in %s.", r.opts.BucketName, r.opts.Region)

	return r.ConfigureWebsite(ctx)
}

// ConfigureWebsite points the bucket website index and error documents at
// the configured pages.
func (r *Reconciler) ConfigureWebsite(ctx context.Context) error {
	if strings.Contains(r.opts.IndexPage, "/") {
		log.WithField("index", r.opts.IndexPage).
			Warn("S3 rejects index documents containing a slash. Set index_page (or --index) to a bare name like index.html.")
	}
	err := r.store.ConfigureWebsite(ctx, r.opts.BucketName, r.opts.IndexPage, r.opts.ErrorPage)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"index": r.opts.IndexPage, "error": r.opts.ErrorPage}).
		Infof("Website hosting configured for %s.", r.opts.BucketName)

	return nil
}

// deleteFiles reports whether remote files missing locally get removed.
func (r *Reconciler) deleteFiles() bool {
	return r.opts.DeleteEnabled()
}

func (r *Reconciler) requireBucket(ctx context.Context) error {
	ok, err := r.store.BucketExists(ctx, r.opts.BucketName)
	if err != nil {
		return err
	}
	if !ok {
		return missingBucket(r.opts.BucketName)
	}

	return nil
}

func (r *Reconciler) download(ctx context.Context, key string) (err error) {
	if dir := path.Dir(key); dir != "." {
		if err = r.pullFs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := r.pullFs.OpenFile(key, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err2 := f.Close(); err == nil {
			err = err2
		}
	}()

	_, err = r.store.Download(ctx, r.opts.BucketName, key, f)
	return err
}

func (r *Reconciler) newRun() *run {
	return &run{r: r, rep: &reporter{out: r.out, verbose: r.opts.IsVerbose()}}
}

// run holds the state of one push or pull. The file and key sets are
// computed on first use and kept until the run is over.
type run struct {
	r   *Reconciler
	rep *reporter
	res Result

	files     []site.File
	destKeys  map[string]struct{}
	remote    []store.Object
	deletable []string
	listed    bool
	planned   bool

	errs []error
}

func (ru *run) localFiles() ([]site.File, error) {
	if ru.files != nil {
		return ru.files, nil
	}
	files, err := ru.r.site.Files()
	if err != nil {
		return nil, err
	}
	ru.files = files

	return files, nil
}

func (ru *run) destinationKeys() (map[string]struct{}, error) {
	if ru.destKeys != nil {
		return ru.destKeys, nil
	}
	files, err := ru.localFiles()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(files))
	for _, f := range files {
		keys[f.RemoteKey] = struct{}{}
	}
	ru.destKeys = keys

	return keys, nil
}

func (ru *run) remoteObjects(ctx context.Context) ([]store.Object, error) {
	if ru.listed {
		return ru.remote, nil
	}
	objs, err := ru.r.store.ListObjects(ctx, ru.r.opts.BucketName)
	if err != nil {
		return nil, err
	}
	ru.remote, ru.listed = objs, true

	return objs, nil
}

// deletableKeys is every remote key under the remote path with no local
// counterpart. It is empty when deletion is off.
func (ru *run) deletableKeys(ctx context.Context) ([]string, error) {
	if !ru.r.deleteFiles() {
		return nil, nil
	}
	if ru.planned {
		return ru.deletable, nil
	}

	local, err := ru.destinationKeys()
	if err != nil {
		return nil, err
	}
	remote, err := ru.remoteObjects(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range remote {
		if _, ok := local[obj.Key]; ok {
			continue
		}
		if site.InPrefix(obj.Key, ru.r.opts.RemotePath) {
			keys = append(keys, obj.Key)
		}
	}
	ru.deletable, ru.planned = keys, true

	return keys, nil
}

func (ru *run) writeFiles(ctx context.Context) error {
	files, err := ru.localFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := ru.upload(ctx, f); err != nil {
			ru.fail(f.RemoteKey, err)
			continue
		}
		ru.res.Uploaded++
		ru.rep.say("Uploaded "+f.RemoteKey, ".")
	}
	ru.rep.done()

	return nil
}

func (ru *run) upload(ctx context.Context, f site.File) error {
	body, err := ru.r.site.Open(f)
	if err != nil {
		return err
	}
	defer body.Close()

	contentType, err := site.ContentType(f.Path, body)
	if err != nil {
		return err
	}

	return ru.r.store.PutObject(ctx, ru.r.opts.BucketName, f.RemoteKey, body, contentType)
}

func (ru *run) deleteFiles(ctx context.Context) error {
	keys, err := ru.deletableKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := ru.r.store.DeleteObject(ctx, ru.r.opts.BucketName, key); err != nil {
			ru.fail(key, err)
			continue
		}
		ru.res.Deleted++
		ru.rep.say("Deleted "+key, "x")
	}
	ru.rep.done()

	return nil
}

func (ru *run) fail(what string, err error) {
	ru.res.Failed = append(ru.res.Failed, what)
	ru.errs = append(ru.errs, err)
	ru.rep.fail("Failed on "+what, err)
}

func (ru *run) err() error {
	if len(ru.errs) == 0 {
		return nil
	}

	return &SyncError{Failed: ru.res.Failed, Err: errors.Join(ru.errs...)}
}
