// Package config holds the deploy options and resolves them from the config
// file, the command line and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
)

// Defaults.
const (
	DefaultFile    = "_deploy.yml"
	DefaultRegion  = "us-east-1"
	DefaultSiteDir = "_site"
	DefaultPullDir = "pull"
)

// Environment fallbacks.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvRegion          = "AWS_DEFAULT_REGION"
	EnvProfile         = "AWS_DEFAULT_PROFILE"
)

// parseErrTemplate is shown when the config file is not valid YAML or has
// fields we do not know about.
const parseErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Misspelled or unknown option names\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// fs is overridden with afero.NewMemMapFs() in tests.
var fs = afero.NewOsFs()

// Options are the deploy settings. The pointer fields are tri-state: nil
// means "not set", so an explicit false can be told apart from a missing
// value.
type Options struct {
	BucketName      string `json:"bucket_name,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	Region          string `json:"region,omitempty"`
	Profile         string `json:"profile,omitempty"`
	RemotePath      string `json:"remote_path,omitempty"`
	SiteDir         string `json:"site_dir,omitempty"`
	PullDir         string `json:"pull_dir,omitempty"`
	IndexPage       string `json:"index_page,omitempty"`
	ErrorPage       string `json:"error_page,omitempty"`
	Delete          *bool  `json:"delete,omitempty"`
	Verbose         *bool  `json:"verbose,omitempty"`
	DryRun          *bool  `json:"dry_run,omitempty"`
}

// FriendlyError is an error meant to be shown to the user as is.
type FriendlyError struct {
	msg string
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage implements the interface the CLI uses to print errors.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

func newFriendlyError(format string, args ...interface{}) FriendlyError {
	return FriendlyError{msg: fmt.Sprintf(format, args...)}
}

// Bool returns a pointer to b, for filling in tri-state options.
func Bool(b bool) *bool {
	return &b
}

// Load reads the options from fname. A missing file is not an error and
// yields empty options.
func Load(fname string) (o Options, err error) {
	buf, err := afero.ReadFile(fs, fname)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return o, nil
		}
		return o, fmt.Errorf("read %s: %w", fname, err)
	}

	if err = yaml.UnmarshalStrict(buf, &o, yaml.DisallowUnknownFields); err != nil {
		return Options{}, newFriendlyError(parseErrTemplate, fname, err)
	}

	return o, nil
}

// Merge overlays the set fields of other on top of o.
func (o *Options) Merge(other Options) {
	if x := other.BucketName; x != "" {
		o.BucketName = x
	}
	if x := other.AccessKeyID; x != "" {
		o.AccessKeyID = x
	}
	if x := other.SecretAccessKey; x != "" {
		o.SecretAccessKey = x
	}
	if x := other.Region; x != "" {
		o.Region = x
	}
	if x := other.Profile; x != "" {
		o.Profile = x
	}
	if x := other.RemotePath; x != "" {
		o.RemotePath = x
	}
	if x := other.SiteDir; x != "" {
		o.SiteDir = x
	}
	if x := other.PullDir; x != "" {
		o.PullDir = x
	}
	if x := other.IndexPage; x != "" {
		o.IndexPage = x
	}
	if x := other.ErrorPage; x != "" {
		o.ErrorPage = x
	}
	if x := other.Delete; x != nil {
		o.Delete = Bool(*x)
	}
	if x := other.Verbose; x != nil {
		o.Verbose = Bool(*x)
	}
	if x := other.DryRun; x != nil {
		o.DryRun = Bool(*x)
	}
}

// Resolve fills in what is still unset, first from the environment (looked
// up through getenv) and then from the literal defaults. The leading slash
// of the remote path is dropped.
func (o Options) Resolve(getenv func(string) string) Options {
	fallback := func(val *string, env, def string) {
		if *val == "" && env != "" {
			*val = getenv(env)
		}
		if *val == "" {
			*val = def
		}
	}

	fallback(&o.AccessKeyID, EnvAccessKeyID, "")
	fallback(&o.SecretAccessKey, EnvSecretAccessKey, "")
	fallback(&o.Region, EnvRegion, DefaultRegion)
	fallback(&o.Profile, EnvProfile, "")
	fallback(&o.SiteDir, "", DefaultSiteDir)
	fallback(&o.PullDir, "", DefaultPullDir)
	o.RemotePath = trimSlashes(o.RemotePath)
	fallback(&o.IndexPage, "", joinKey(o.RemotePath, "index.html"))
	fallback(&o.ErrorPage, "", joinKey(o.RemotePath, "404.html"))

	return o
}

// Validate checks the options needed by every command.
func (o Options) Validate() error {
	if o.BucketName == "" {
		return newFriendlyError("Required field missing: bucket_name is not set.\n" +
			"Set it in the config file or pass --bucket.")
	}

	return nil
}

// ValidateSite checks that the local site directory is there to be pushed.
func (o Options) ValidateSite() error {
	ok, err := afero.DirExists(fs, o.SiteDir)
	if err != nil {
		return fmt.Errorf("stat site dir: %w", err)
	}
	if !ok {
		return newFriendlyError("Site directory %q does not exist.\n"+
			"Build the site first, or point site_dir (or --site) at it.", o.SiteDir)
	}

	return nil
}

// DeleteEnabled reports whether remote files missing locally get removed.
// Deletion has to be asked for explicitly.
func (o Options) DeleteEnabled() bool {
	return o.Delete != nil && *o.Delete
}

// IsVerbose reports whether every transferred file is logged. It is on
// unless switched off.
func (o Options) IsVerbose() bool {
	return o.Verbose == nil || *o.Verbose
}

// IsDryRun reports whether changes are only pretended.
func (o Options) IsDryRun() bool {
	return o.DryRun != nil && *o.DryRun
}

func trimSlashes(p string) string {
	return strings.Trim(p, "/")
}

func joinKey(prefix, name string) string {
	return trimSlashes(path.Join(prefix, name))
}
