// Package upload implements the upload endpoint: multipart file uploads,
// listing and deletion with the JSON responses of the jQuery-File-Upload
// protocol, plus resized versions of uploaded images.
package upload

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gopher-upload/internal/config"
	"gopher-upload/internal/errors"
	"gopher-upload/internal/imageversion"
)

// DefaultPrefix is the path the handler expects to be mounted at.
const DefaultPrefix = "/upload"

// Handler serves the upload endpoint.
type Handler struct {
	cfg     config.Upload
	prefix  string
	tmpDir  string
	accept  *regexp.Regexp
	manager *Manager
	hooks   Hooks

	// guards choosing a free name and moving the file there
	mu sync.Mutex
}

// Option configures a Handler.
type Option func(*Handler)

// WithHooks registers lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(hd *Handler) { hd.hooks = h }
}

// WithPrefix sets the mount path. Delete URLs are built from it.
func WithPrefix(prefix string) Option {
	return func(hd *Handler) { hd.prefix = strings.TrimRight(prefix, "/") }
}

type filesResponse struct {
	Files []FileInfo `json:"files"`
	Error string     `json:"error,omitempty"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// New builds a handler from cfg.
func New(cfg config.Upload, opts ...Option) (*Handler, error) {
	accept, err := regexp.Compile(cfg.AcceptTypes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "accept file types")
	}
	images, err := regexp.Compile(cfg.ImageTypes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "image types")
	}

	h := &Handler{
		cfg:    cfg,
		prefix: DefaultPrefix,
		tmpDir: cfg.TmpDir,
		accept: accept,
		hooks:  NoopHooks{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tmpDir == "" {
		h.tmpDir = os.TempDir()
	}
	h.manager = &Manager{
		dir:       cfg.Dir,
		url:       strings.TrimRight(cfg.URL, "/"),
		deleteURL: h.prefix,
		images:    images,
		versions:  imageversion.New(cfg.Dir, cfg.Versions),
	}
	return h, nil
}

// Manager returns the manager for the handler's upload directory.
func (h *Handler) Manager() *Manager {
	return h.manager
}

// ServeHTTP dispatches on the request method.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w)
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, h.prefix), "/")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		h.get(w, r, name)
	case http.MethodPost:
		h.post(w, r)
	case http.MethodDelete:
		h.delete(w, r, name)
	default:
		w.Header().Set("Allow", h.cfg.AllowMethods)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) setCORS(w http.ResponseWriter) {
	if h.cfg.AllowOrigin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", h.cfg.AllowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", h.cfg.AllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Range, Content-Disposition")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, name string) {
	if name != "" {
		info, err := h.manager.Info(name)
		if err != nil {
			writeJSON(w, r, errors.HTTPStatus(err), filesResponse{Files: []FileInfo{}, Error: errors.UserMessage(err)})
			return
		}
		writeJSON(w, r, http.StatusOK, filesResponse{Files: []FileInfo{info}})
		return
	}
	files, err := h.manager.Files(r.Context())
	if err != nil {
		writeJSON(w, r, errors.HTTPStatus(err), filesResponse{Files: []FileInfo{}, Error: errors.UserMessage(err)})
		return
	}
	writeJSON(w, r, http.StatusOK, filesResponse{Files: files})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxPostSize > 0 {
		if r.ContentLength > h.cfg.MaxPostSize {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, filesResponse{Files: []FileInfo{}, Error: ErrMaxPostSize})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPostSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, filesResponse{Files: []FileInfo{}, Error: "expected multipart/form-data"})
		return
	}

	files := []FileInfo{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeJSON(w, r, bodyErrorStatus(err), filesResponse{Files: files, Error: bodyErrorMessage(err)})
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}
		info, err := h.store(r.Context(), part)
		part.Close()
		files = append(files, info)
		if err != nil {
			writeJSON(w, r, bodyErrorStatus(err), filesResponse{Files: files, Error: bodyErrorMessage(err)})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, filesResponse{Files: files})
}

// store streams one file part into the upload directory. Validation
// failures are reported in the returned FileInfo; a non-nil error means
// the request body itself is broken and no further parts can be read.
func (h *Handler) store(ctx context.Context, part *multipart.Part) (info FileInfo, err error) {
	info = FileInfo{
		OriginalName: part.FileName(),
		Type:         contentType(part.FileName(), part.Header.Get("Content-Type")),
	}
	h.hooks.OnBegin(ctx, info)
	defer func() { h.hooks.OnEnd(ctx, info) }()

	if !h.accept.MatchString(info.OriginalName) {
		info.Error = ErrTypeNotAllowed
		return info, nil
	}

	tmp := filepath.Join(h.tmpDir, "upload-"+uuid.NewString())
	f, ferr := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if ferr != nil {
		info.Error = ErrUploadFailed
		h.hooks.OnError(ctx, info, ferr)
		return info, nil
	}
	defer os.Remove(tmp)

	reader := io.Reader(part)
	if h.cfg.MaxFileSize > 0 {
		reader = io.LimitReader(part, h.cfg.MaxFileSize+1)
	}
	n, cerr := io.Copy(f, reader)
	if err := f.Close(); err != nil && cerr == nil {
		info.Error = ErrUploadFailed
		h.hooks.OnError(ctx, info, err)
		return info, nil
	}
	if cerr != nil {
		info.Error = bodyErrorMessage(cerr)
		return info, cerr
	}
	info.Size = n

	switch {
	case h.cfg.MaxFileSize > 0 && n > h.cfg.MaxFileSize:
		info.Error = ErrFileTooBig
		return info, nil
	case n < h.cfg.MinFileSize:
		info.Error = ErrFileTooSmall
		return info, nil
	}

	name, merr := h.commit(tmp, info.OriginalName)
	if merr != nil {
		info.Error = ErrUploadFailed
		h.hooks.OnError(ctx, info, merr)
		return info, nil
	}

	var procErr string
	if h.manager.isImage(name) {
		if gerr := h.manager.versions.Generate(filepath.Join(h.manager.dir, name), name); gerr != nil {
			procErr = ErrImageProcessing
			h.hooks.OnError(ctx, info, gerr)
		}
	}

	stored := h.manager.describe(name, n)
	stored.OriginalName = info.OriginalName
	stored.Type = info.Type
	stored.Error = procErr
	info = stored
	return info, nil
}

// commit moves tmp into the upload directory under a free name derived
// from original and returns that name.
func (h *Handler) commit(tmp, original string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.manager.dir, 0755); err != nil {
		return "", err
	}
	name := uniqueName(h.manager.dir, safeName(original))
	if err := moveFile(tmp, filepath.Join(h.manager.dir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" {
		writeJSON(w, r, http.StatusBadRequest, deleteResponse{Error: "file name required"})
		return
	}
	if err := h.manager.Delete(r.Context(), name); err != nil {
		writeJSON(w, r, errors.HTTPStatus(err), deleteResponse{Error: errors.UserMessage(err)})
		return
	}
	h.hooks.OnDelete(r.Context(), name)
	writeJSON(w, r, http.StatusOK, deleteResponse{Success: true})
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

func bodyErrorStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func bodyErrorMessage(err error) string {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return ErrMaxPostSize
	}
	return ErrUploadFailed
}

// writeJSON answers with application/json when the client accepts it and
// text/plain otherwise, as iframe-transport uploads need.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
