// Package imageversion writes resized copies of uploaded images.
package imageversion

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"gopher-upload/internal/config"
	"gopher-upload/internal/errors"
)

// Generator resizes images into one sub-directory per version.
type Generator struct {
	dir      string
	versions []config.ImageVersion
}

// New returns a generator writing under dir.
func New(dir string, versions []config.ImageVersion) *Generator {
	return &Generator{dir: dir, versions: versions}
}

// Versions returns the configured versions.
func (g *Generator) Versions() []config.ImageVersion {
	return g.versions
}

// Path returns where version stores name.
func (g *Generator) Path(version, name string) string {
	return filepath.Join(g.dir, version, name)
}

// Generate decodes src once and writes every version of it as name.
// The output format follows the extension of name. Images already
// smaller than a version are copied at their original size.
func (g *Generator) Generate(src, name string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", name)
	}
	for _, v := range g.versions {
		out := fit(img, v.Width, v.Height)
		path := g.Path(v.Name, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create %s directory", v.Name)
		}
		if err := imaging.Save(out, path); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s version of %s", v.Name, name)
		}
	}
	return nil
}

// Remove deletes every version of name. Missing files are ignored.
func (g *Generator) Remove(name string) error {
	for _, v := range g.versions {
		if err := os.Remove(g.Path(v.Name, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// fit scales img down to fit within width x height, keeping its aspect ratio.
func fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, width, height, imaging.Lanczos)
}
