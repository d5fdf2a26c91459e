package handle

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"

	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/service"
)

const multipartMemory = 1 << 20

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseMultipart caps the body and parses the form; the caller must defer
// r.MultipartForm.RemoveAll.
func (h *Handle) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return &service.InputError{Field: "form", Msg: "bad multipart form: " + err.Error(), Err: err}
	}
	return nil
}

// readUpload copies the named file part into a temp file under UploadDir,
// reads it back and removes it before returning. ok is false when the part is absent.
func (h *Handle) readUpload(r *http.Request, field string) (img llm.Image, ok bool, err error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return llm.Image{}, false, nil
	}
	if err != nil {
		return llm.Image{}, false, &service.InputError{Field: field, Msg: fmt.Sprintf("bad %s: %v", field, err), Err: err}
	}
	defer f.Close()

	tmp, err := os.CreateTemp(h.opts.UploadDir, "upload-*")
	if err != nil {
		return llm.Image{}, false, fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, f); err != nil {
		_ = tmp.Close()
		return llm.Image{}, false, fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return llm.Image{}, false, fmt.Errorf("close temp: %w", err)
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return llm.Image{}, false, fmt.Errorf("read temp: %w", err)
	}
	return llm.Image{MIME: hdr.Header.Get("Content-Type"), Data: data}, true, nil
}
