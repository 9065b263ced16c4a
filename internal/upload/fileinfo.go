package upload

import (
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// FileInfo describes one stored upload in the jQuery-File-Upload
// response format.
type FileInfo struct {
	Name         string            `json:"name"`
	OriginalName string            `json:"originalName,omitempty"`
	Size         int64             `json:"size"`
	Type         string            `json:"type,omitempty"`
	URL          string            `json:"url,omitempty"`
	DeleteURL    string            `json:"deleteUrl,omitempty"`
	DeleteType   string            `json:"deleteType,omitempty"`
	ThumbnailURL string            `json:"thumbnailUrl,omitempty"`
	Versions     map[string]string `json:"versions,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Validation messages reported in FileInfo.Error.
const (
	ErrMaxPostSize     = "maxPostSize exceeded"
	ErrFileTooBig      = "File is too big"
	ErrFileTooSmall    = "File is too small"
	ErrTypeNotAllowed  = "Filetype not allowed"
	ErrImageProcessing = "Image processing failed"
	ErrUploadFailed    = "Upload failed"
)

var (
	leadingDots = regexp.MustCompile(`^\.+`)
	counterRe   = regexp.MustCompile(`(?: \((\d+)\))?(\.[^.]+)?$`)
)

// safeName strips any client path and leading dots from name.
func safeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = leadingDots.ReplaceAllString(filepath.Base(name), "")
	name = strings.TrimSpace(name)
	if name == "" || name == "/" {
		return "file"
	}
	return name
}

// nextName bumps the " (n)" counter before the extension:
// "a.png" -> "a (1).png" -> "a (2).png".
func nextName(name string) string {
	m := counterRe.FindStringSubmatchIndex(name)
	n := 1
	if m[2] >= 0 {
		if cur, err := strconv.Atoi(name[m[2]:m[3]]); err == nil {
			n = cur + 1
		}
	}
	ext := ""
	if m[4] >= 0 {
		ext = name[m[4]:m[5]]
	}
	return name[:m[0]] + " (" + strconv.Itoa(n) + ")" + ext
}

// uniqueName returns the first name derived from name that does not
// exist in dir.
func uniqueName(dir, name string) string {
	for {
		if _, err := os.Lstat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = nextName(name)
	}
}

// validName reports whether name can refer to a stored upload.
func validName(name string) bool {
	return name != "" && name == safeName(name) && !strings.ContainsAny(name, `/\`)
}

func contentType(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}
