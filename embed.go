// Package contactbook provides embedded runtime resources (the default config
// template) and an overlay filesystem that checks local disk first, falling
// back to embedded.
package contactbook

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigTemplateName is the name of the default config template in Templates.
const ConfigTemplateName = "config.yaml"

//go:embed templates/config.yaml
var rawTemplates embed.FS

// Templates is the embedded templates filesystem with the "templates/" prefix stripped.
var Templates = mustSub(rawTemplates, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// OverlayFS returns a filesystem that checks localDir on disk first,
// falling back to the embedded filesystem for files not found locally.
func OverlayFS(localDir string, embedded fs.FS) fs.FS {
	return overlayFS{localDir: localDir, embedded: embedded}
}

type overlayFS struct {
	localDir string
	embedded fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if o.localDir != "" {
		if f, err := os.Open(filepath.Join(o.localDir, filepath.FromSlash(name))); err == nil {
			return f, nil
		}
	}
	return o.embedded.Open(name)
}

// ConfigTemplate returns the default config template, preferring a copy in
// localDir when one exists.
func ConfigTemplate(localDir string) ([]byte, error) {
	return fs.ReadFile(OverlayFS(localDir, Templates), ConfigTemplateName)
}
