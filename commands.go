package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alexaandru/go3deploy/internal/config"
)

func (c *cli) pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the site to the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, o, err := c.reconciler(cmd, config.Options.ValidateSite)
			if err != nil {
				return err
			}
			log.Infof("Pushing %s to %s", o.SiteDir, o.BucketName)

			_, err = rec.Push(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVarP(&c.flags.SiteDir, "site", "s", "", "Local site directory (default "+config.DefaultSiteDir+")")

	return cmd
}

func (c *cli) pullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Copy the bucket content into a local directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, o, err := c.reconciler(cmd)
			if err != nil {
				return err
			}
			log.Infof("Pulling %s into %s", o.BucketName, o.PullDir)

			_, err = rec.Pull(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVarP(&c.flags.PullDir, "dir", "d", "", "Directory to pull into (default "+config.DefaultPullDir+")")

	return cmd
}

func (c *cli) addBucketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add_bucket",
		Short: "Create the bucket and enable website hosting on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, _, err := c.reconciler(cmd)
			if err != nil {
				return err
			}

			return rec.AddBucket(cmd.Context())
		},
	}
}

func (c *cli) configureWebsiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure_website",
		Short: "Set the website index and error documents of the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, _, err := c.reconciler(cmd)
			if err != nil {
				return err
			}

			return rec.ConfigureWebsite(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&c.flags.IndexPage, "index", "", "Index document key (default <remote path>/index.html)")
	cmd.Flags().StringVar(&c.flags.ErrorPage, "error", "", "Error document key (default <remote path>/404.html)")

	return cmd
}

func (c *cli) initCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := c.unresolved(cmd)
			if err != nil {
				return err
			}
			if !write {
				return config.WriteDefault(c.out, o)
			}

			if err = config.SaveDefault(c.cfgFile, o); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Config written to %s. Fill in the blanks before deploying.\n", c.cfgFile)

			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the config file instead of printing it")

	return cmd
}
