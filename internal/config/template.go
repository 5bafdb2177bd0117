package config

import (
	"fmt"
	"io"
	"text/template"

	"github.com/spf13/afero"
)

var defaultDoc = template.Must(template.New("config").Parse(`# go3deploy configuration.
bucket_name: {{.BucketName}}
access_key_id: {{.AccessKeyID}}         # Leave blank to use the AWS_ACCESS_KEY_ID environment variable.
secret_access_key: {{.SecretAccessKey}} # Leave blank to use the AWS_SECRET_ACCESS_KEY environment variable.
remote_path: {{.RemotePath}}            # Files are deployed under this path in the bucket. Blank means the bucket root.

# region: {{.Region}}   # Defaults to AWS_DEFAULT_REGION, then us-east-1.
# delete: true          # Delete remote files under remote_path that no longer exist locally.
# verbose: true         # Print every file as it is transferred. When false, print a dot per file.
`))

// WriteDefault renders the default configuration document to w, prefilled
// with whatever o already holds.
func WriteDefault(w io.Writer, o Options) error {
	if o.Region == "" {
		o.Region = DefaultRegion
	}

	return defaultDoc.Execute(w, o)
}

// SaveDefault writes the default configuration document to fname, refusing
// to overwrite an existing file.
func SaveDefault(fname string, o Options) (err error) {
	exists, err := afero.Exists(fs, fname)
	if err != nil {
		return err
	}
	if exists {
		return newFriendlyError("A config file already exists at %q.", fname)
	}

	f, err := fs.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		err2 := f.Close()
		if err == nil {
			err = err2
		} else if err2 != nil {
			err = fmt.Errorf("%v; %v", err, err2)
		}
	}()

	return WriteDefault(f, o)
}
