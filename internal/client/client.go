// Package client talks to an upload server over HTTP.
package client

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopher-upload/internal/errors"
	"gopher-upload/internal/security"
	"gopher-upload/internal/upload"
)

// Client uploads, lists and deletes files on one server.
type Client struct {
	baseURL    string
	uploadPath string
	http       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithInsecureTLS accepts self-signed server certificates.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.http.Transport = &http.Transport{TLSClientConfig: security.ClientConfig(true)}
	}
}

// New returns a client for the server at baseURL (e.g. http://host:3001).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadPath: upload.DefaultPrefix,
		http:       &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type filesResponse struct {
	Files []upload.FileInfo `json:"files"`
	Error string            `json:"error,omitempty"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ProgressFunc wraps the file reader, typically to draw progress.
type ProgressFunc func(name string, size int64, r io.Reader) io.Reader

// Upload streams the file at path to the server as multipart form data.
// A file the server rejected is returned with an UPLOAD_REJECTED error.
func (c *Client) Upload(ctx context.Context, path string, progress ProgressFunc) (upload.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return upload.FileInfo{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return upload.FileInfo{}, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path)
	}
	name := filepath.Base(path)

	var src io.Reader = f
	if progress != nil {
		src = progress(name, st.Size(), f)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("files[]", name)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.uploadPath, pr)
	if err != nil {
		pr.Close()
		return upload.FileInfo{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp filesResponse
	status, err := c.do(req, &resp)
	if err != nil {
		return upload.FileInfo{}, err
	}
	if status != http.StatusOK || len(resp.Files) == 0 {
		msg := resp.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return upload.FileInfo{}, errors.New(errors.ErrCodeUploadRejected, "%s: %s", name, msg)
	}
	info := resp.Files[0]
	if info.Error != "" {
		return info, errors.New(errors.ErrCodeUploadRejected, "%s: %s", name, info.Error)
	}
	return info, nil
}

// List returns the server's file descriptors from /list.
func (c *Client) List(ctx context.Context) ([]upload.FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/list", nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	var files []upload.FileInfo
	status, err := c.do(req, &files)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, errors.New(errors.ErrCodeNetwork, "list: %s", http.StatusText(status))
	}
	return files, nil
}

// Delete removes name and its image versions from the server.
func (c *Client) Delete(ctx context.Context, name string) error {
	u := c.baseURL + c.uploadPath + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	var resp deleteResponse
	status, err := c.do(req, &resp)
	if err != nil {
		return err
	}
	switch {
	case resp.Success:
		return nil
	case status == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "%s: %s", name, resp.Error)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s: %s", name, resp.Error)
	}
}

// do sends req and decodes a JSON body into v. Non-JSON bodies leave v
// untouched; only transport failures are errors.
func (c *Client) do(req *http.Request, v any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.Wrap(errors.ErrCodeNetwork, err, "read response")
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil && resp.StatusCode == http.StatusOK {
			return resp.StatusCode, errors.Wrap(errors.ErrCodeNetwork, err, "decode response")
		}
	}
	return resp.StatusCode, nil
}

