package upload

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopher-upload/internal/errors"
	"gopher-upload/internal/imageversion"
)

// Manager reads and deletes stored uploads.
type Manager struct {
	dir       string
	url       string
	deleteURL string
	images    *regexp.Regexp
	versions  *imageversion.Generator
}

// Dir returns the upload directory.
func (m *Manager) Dir() string { return m.dir }

// Files lists every stored upload sorted by name. Version directories
// and dotfiles are skipped.
func (m *Manager) Files(ctx context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", m.dir)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, m.describe(e.Name(), info.Size()))
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Info describes a single stored upload.
func (m *Manager) Info(name string) (FileInfo, error) {
	if !validName(name) {
		return FileInfo{}, errors.New(errors.ErrCodeInvalidInput, "invalid file name %q", name)
	}
	st, err := os.Stat(filepath.Join(m.dir, name))
	if os.IsNotExist(err) || (err == nil && st.IsDir()) {
		return FileInfo{}, errors.New(errors.ErrCodeFileNotFound, "no such file %q", name)
	}
	if err != nil {
		return FileInfo{}, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", name)
	}
	return m.describe(name, st.Size()), nil
}

// Delete removes name and all its image versions.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid file name %q", name)
	}
	path := filepath.Join(m.dir, name)
	st, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && st.IsDir()) {
		return errors.New(errors.ErrCodeFileNotFound, "no such file %q", name)
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete %s", name)
	}
	if err := m.versions.Remove(name); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete versions of %s", name)
	}
	return nil
}

func (m *Manager) isImage(name string) bool {
	return m.images.MatchString(name) && len(m.versions.Versions()) > 0
}

func (m *Manager) describe(name string, size int64) FileInfo {
	escaped := url.PathEscape(name)
	info := FileInfo{
		Name:       name,
		Size:       size,
		Type:       contentType(name, ""),
		URL:        m.url + "/" + escaped,
		DeleteURL:  m.deleteURL + "/" + escaped,
		DeleteType: "DELETE",
	}
	if !m.isImage(name) {
		return info
	}
	for _, v := range m.versions.Versions() {
		if _, err := os.Stat(m.versions.Path(v.Name, name)); err != nil {
			continue
		}
		if info.Versions == nil {
			info.Versions = make(map[string]string)
		}
		versionURL := m.url + "/" + v.Name + "/" + escaped
		info.Versions[v.Name] = versionURL
		if info.ThumbnailURL == "" || v.Name == "thumbnail" {
			info.ThumbnailURL = versionURL
		}
	}
	return info
}
