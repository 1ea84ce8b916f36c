package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/storage"
)

// multipartMemory is the portion of a multipart body held in memory; the rest spills to disk.
const multipartMemory = 8 << 20

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ValidationCause("invalid request body", err)
	}
	return nil
}

// multipartRequest tracks the files opened from a parsed multipart form so they
// can be released once the handler returns.
type multipartRequest struct {
	r       *http.Request
	closers []io.Closer
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipartRequest, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.ValidationCause(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err)
		}
		return nil, apperr.ValidationCause("request must be multipart/form-data", err)
	}
	return &multipartRequest{r: r}, nil
}

func (m *multipartRequest) value(field string) string {
	return m.r.FormValue(field)
}

// optionalValue distinguishes an absent field from an empty one.
func (m *multipartRequest) optionalValue(field string) *string {
	values, ok := m.r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// file returns the upload under field, or nil when the part is absent.
func (m *multipartRequest) file(field string) (*storage.Upload, error) {
	file, header, err := m.r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.ValidationCause("unreadable "+field+" file", err)
	}
	m.closers = append(m.closers, file)
	return &storage.Upload{Filename: fileName(header), Body: file}, nil
}

func (m *multipartRequest) Close() {
	for _, c := range m.closers {
		_ = c.Close()
	}
	if m.r.MultipartForm != nil {
		_ = m.r.MultipartForm.RemoveAll()
	}
}

func fileName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}
