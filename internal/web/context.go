package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/geocalc/internal/core"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
)

// multipartReserve is extra request body room for form fields and part
// headers on top of the file size limit.
const multipartReserve = 1 << 20

// maxMemory is how much of a multipart form is held in memory; larger parts
// spill to temporary files.
const maxMemory = 8 << 20

// multipartSource reads an uploaded form file.
type multipartSource struct {
	header *multipart.FileHeader
}

func (m multipartSource) Name() string { return m.header.Filename }

func (m multipartSource) Open() (io.ReadCloser, error) {
	return m.header.Open()
}

// parseUpload parses a multipart body holding at most files uploads. A body
// that is not multipart is accepted so missing files can be reported by the
// service.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, files int) error {
	return parseBody(w, r, int64(files)*s.cfg.Upload.MaxFileSize+multipartReserve)
}

// parseBody parses a multipart or urlencoded form of at most limit bytes.
// A larger body fails with core.ErrFileTooLarge.
func parseBody(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(maxMemory)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	case errors.As(err, &tooLarge):
		return fmt.Errorf("request body: %w", core.ErrFileTooLarge)
	default:
		return &core.ReadError{File: "request", Err: err}
	}
}

// formSource returns the uploaded file in field, or nil when absent.
func formSource(r *http.Request, field string) core.Source {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	return multipartSource{header: headers[0]}
}

// formMode reads the optional mode field. Empty leaves the choice to the
// service's configured default.
func formMode(r *http.Request) (pointcsv.Mode, error) {
	v := r.FormValue("mode")
	if v == "" {
		return "", nil
	}
	mode, err := pointcsv.ParseMode(v)
	if err != nil {
		return "", core.NewModeError(v)
	}
	return mode, nil
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
