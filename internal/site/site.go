// Package site lists the local files of a generated static site and maps
// them to their remote keys.
package site

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// File is a file of the local site.
type File struct {
	// Path is slash separated and relative to the site root.
	Path      string
	RemoteKey string
}

// Dir is a local site directory.
type Dir struct {
	root       string
	remotePath string
	fs         afero.Fs
}

// New returns the site rooted at root, whose files live under remotePath in
// the bucket.
func New(root, remotePath string) *Dir {
	return &Dir{
		root:       root,
		remotePath: NormalizePrefix(remotePath),
		fs:         afero.NewBasePathFs(afero.NewOsFs(), root),
	}
}

// Files lists every regular file under the site root, sorted by path.
// Symlinks to files are followed; broken symlinks and symlinked directories
// are skipped with a warning.
func (d *Dir) Files() ([]File, error) {
	ok, err := afero.DirExists(d.fs, "/")
	if err != nil {
		return nil, fmt.Errorf("stat site dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("site dir %q does not exist", d.root)
	}

	var files []File
	err = afero.Walk(d.fs, "/", func(fname string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("list site dir %q: %w", d.root, err)
		}

		rel := strings.TrimLeft(filepath.ToSlash(fname), "/")
		if info.Mode()&os.ModeSymlink != 0 {
			if info, err = d.fs.Stat(fname); err != nil {
				log.WithError(err).Warnf("Skipping broken symlink %s", rel)
				return nil
			}
			if info.IsDir() {
				log.Warnf("Skipping symlinked directory %s", rel)
				return nil
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, File{Path: rel, RemoteKey: RemoteKey(d.remotePath, rel)})

		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files, nil
}

// Open opens f for reading.
func (d *Dir) Open(f File) (afero.File, error) {
	return d.fs.Open(f.Path)
}

// NormalizePrefix strips the surrounding slashes off a remote path.
func NormalizePrefix(p string) string {
	return strings.Trim(p, "/")
}

// RemoteKey joins the remote prefix with a relative path. The result never
// starts with a slash.
func RemoteKey(prefix, rel string) string {
	return strings.TrimLeft(path.Join(NormalizePrefix(prefix), rel), "/")
}

// InPrefix reports whether key lives under prefix, matching whole path
// segments. Everything is under the empty prefix.
func InPrefix(key, prefix string) bool {
	prefix = NormalizePrefix(prefix)
	if prefix == "" {
		return true
	}

	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
