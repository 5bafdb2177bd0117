package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/alexaandru/go3deploy/internal/config"
	"github.com/alexaandru/go3deploy/internal/deploy"
	"github.com/alexaandru/go3deploy/internal/site"
	"github.com/alexaandru/go3deploy/internal/store"
)

// debugLogKey is the environment variable used to enable debug logging.
const debugLogKey = "GO3DEPLOY_LOG_DEBUG"

// connect opens the object store. Tests replace it.
var connect = func(o config.Options) (store.ObjectStore, error) {
	s3, err := store.NewS3(store.Credentials{
		AccessKeyID:     o.AccessKeyID,
		SecretAccessKey: o.SecretAccessKey,
		Profile:         o.Profile,
		Region:          o.Region,
	})
	if err != nil {
		return nil, setupError{err}
	}

	return s3, nil
}

// cli holds what the command line collected before the options get resolved.
type cli struct {
	cfgFile string
	flags   config.Options
	del     bool
	verbose bool
	dry     bool

	getenv func(string) string
	out    io.Writer
	pullFs afero.Fs
}

func newRootCmd() *cobra.Command {
	return (&cli{getenv: os.Getenv, out: os.Stdout}).rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "go3deploy",
		Short: "Deploy a static site to an S3 bucket",

		// main prints the error, so silence cobra to avoid double printing.
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRun: func(*cobra.Command, []string) { c.setupLogging() },
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return flagError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", config.DefaultFile, "Config file location")
	pf.StringVar(&c.flags.BucketName, "bucket", "", "Bucket to deploy to")
	pf.StringVar(&c.flags.Region, "region", "", "AWS region (default "+config.DefaultRegion+")")
	pf.StringVar(&c.flags.Profile, "profile", "", "AWS shared profile")
	pf.StringVar(&c.flags.RemotePath, "remote-path", "", "Path inside the bucket the site lives under")
	pf.BoolVar(&c.del, "delete", false, "Delete remote files under the remote path that no longer exist locally")
	pf.BoolVar(&c.verbose, "verbose", true, "Print the name of the files as they are transferred")
	pf.BoolVar(&c.dry, "dry", false, "Dry run (change neither the bucket nor local files)")

	root.AddCommand(
		c.pushCmd(),
		c.pullCmd(),
		c.addBucketCmd(),
		c.configureWebsiteCmd(),
		c.initCmd(),
	)

	return root
}

func (c *cli) setupLogging() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if c.getenv(debugLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}
}

// options layers the flags that were explicitly set over the config file, then
// falls back to the environment and the defaults.
func (c *cli) options(cmd *cobra.Command) (config.Options, error) {
	o, err := c.unresolved(cmd)
	if err != nil {
		return o, err
	}

	return o.Resolve(c.getenv), nil
}

// unresolved is the config file merged with the flags, without any fallback.
func (c *cli) unresolved(cmd *cobra.Command) (config.Options, error) {
	o, err := config.Load(c.cfgFile)
	if err != nil {
		return o, err
	}

	flags := c.flags
	set := cmd.Flags().Changed
	if set("delete") {
		flags.Delete = config.Bool(c.del)
	}
	if set("verbose") {
		flags.Verbose = config.Bool(c.verbose)
	}
	if set("dry") {
		flags.DryRun = config.Bool(c.dry)
	}
	o.Merge(flags)

	return o, nil
}

// reconciler resolves and validates the options, runs the command specific
// checks, then connects to the store.
func (c *cli) reconciler(cmd *cobra.Command, checks ...func(config.Options) error) (*deploy.Reconciler, config.Options, error) {
	o, err := c.options(cmd)
	if err != nil {
		return nil, o, err
	}
	if err = o.Validate(); err != nil {
		return nil, o, err
	}
	for _, check := range checks {
		if err = check(o); err != nil {
			return nil, o, err
		}
	}

	st, err := connect(o)
	if err != nil {
		return nil, o, err
	}
	log.WithFields(log.Fields{"bucket": o.BucketName, "region": o.Region}).Debug("Connected")

	opts := []deploy.Option{deploy.WithOutput(c.out)}
	if c.pullFs != nil {
		opts = append(opts, deploy.WithPullFs(c.pullFs))
	}

	return deploy.New(st, site.New(o.SiteDir, o.RemotePath), o, opts...), o, nil
}
