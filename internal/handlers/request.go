package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

const multipartMemory = 32 << 20

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Validation("invalid request body", err.Error())
	}
	return nil
}

// currentUser returns the user attached by the session middleware.
func currentUser(ctx context.Context) (models.User, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok || user.ID == "" {
		return models.User{}, auth.ErrUnauthenticated
	}
	return user, nil
}

// pathID reads a required path parameter.
func pathID(r *http.Request, name, label string) (string, error) {
	id := strings.TrimSpace(r.PathValue(name))
	if id == "" {
		return "", apperrors.Validation("Invalid " + label + " ID")
	}
	return id, nil
}

func nowUTC(f func() time.Time) time.Time {
	if f != nil {
		return f().UTC()
	}
	return time.Now().UTC()
}

// parseMultipart bounds the body to maxBytes and parses the multipart form.
// Callers must release the parsed form with r.MultipartForm.RemoveAll.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("Upload exceeds the size limit")
		}
		return apperrors.Validation("invalid multipart form", err.Error())
	}
	return nil
}

func releaseMultipart(ctx context.Context, r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		logging.FromContext(ctx).Warn("remove multipart temp files", "error", err)
	}
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// formFile returns the first file uploaded under field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

type upload struct {
	header *multipart.FileHeader
	kind   media.Kind
}

// spool copies every upload to the temp directory. On failure the files
// already spooled are removed.
func spool(ctx context.Context, store MediaStore, uploads []upload) ([]media.LocalFile, error) {
	files := make([]media.LocalFile, 0, len(uploads))
	for _, u := range uploads {
		if u.header == nil {
			continue
		}
		p, err := store.Spool(u.header)
		if err != nil {
			for _, f := range files {
				removeSpooled(ctx, f.Path)
			}
			return nil, apperrors.Internal("Failed to store upload", err)
		}
		files = append(files, media.LocalFile{Path: p, Kind: u.kind})
	}
	return files, nil
}

func removeSpooled(ctx context.Context, p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove spooled upload", "path", p, "error", err)
	}
}
