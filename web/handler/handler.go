// Package handler serves the public site. Files in a configured public
// directory win; anything missing there falls through to the embedded
// upload page.
package handler

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed static
var embedded embed.FS

// Static returns a handler for publicDir layered over the embedded site.
// A directory is only served from a layer that has its index.html, so
// directories are never listed.
func Static(publicDir string) http.Handler {
	var layers layeredFS
	if publicDir != "" {
		layers = append(layers, os.DirFS(publicDir))
	}
	layers = append(layers, Embedded())
	return http.FileServer(http.FS(layers))
}

// Files serves the regular files under dir. Directory requests are 404.
func Files(dir string) http.Handler {
	return http.FileServer(http.FS(filesOnlyFS{os.DirFS(dir)}))
}

// Embedded returns the built-in site rooted at its index page.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// layeredFS opens name from the first layer that has it.
type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	for _, layer := range l {
		f, err := layer.Open(name)
		if err != nil {
			continue
		}
		st, err := f.Stat()
		if err != nil {
			f.Close()
			continue
		}
		if st.IsDir() {
			if _, err := fs.Stat(layer, path.Join(name, "index.html")); err != nil {
				f.Close()
				continue
			}
		}
		return f, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

type filesOnlyFS struct {
	fs.FS
}

func (f filesOnlyFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if st.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return file, nil
}
