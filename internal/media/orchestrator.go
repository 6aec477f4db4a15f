package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// Kind groups uploaded objects under a key prefix.
type Kind string

const (
	KindVideo      Kind = "video"
	KindThumbnail  Kind = "thumbnail"
	KindAvatar     Kind = "avatar"
	KindCoverImage Kind = "cover-image"
)

// BlobStore persists and removes media objects.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Deleter
}

// DurationProber reads the playback length of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// LocalFile is a spooled upload waiting to be moved to the blob store.
type LocalFile struct {
	Path string
	Kind Kind
}

// Orchestrator moves spooled uploads into the blob store and cleans up after
// failed writes.
type Orchestrator struct {
	store   BlobStore
	prober  DurationProber
	janitor *Janitor
	tempDir string
}

// NewOrchestrator wires an orchestrator around an explicit blob store.
// prober and janitor may be nil.
func NewOrchestrator(store BlobStore, prober DurationProber, janitor *Janitor, tempDir string) *Orchestrator {
	if strings.TrimSpace(tempDir) == "" {
		tempDir = os.TempDir()
	}
	return &Orchestrator{store: store, prober: prober, janitor: janitor, tempDir: tempDir}
}

// Spool copies a multipart part into the temp directory and returns its path.
func (o *Orchestrator) Spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(o.tempDir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return dst.Name(), nil
}

// Upload moves the file at localPath into the blob store under kind. The
// local file is removed whether or not the upload succeeds.
func (o *Orchestrator) Upload(ctx context.Context, localPath string, kind Kind) (models.Asset, error) {
	defer removeTemp(ctx, localPath)

	if o.store == nil {
		return models.Asset{}, ErrStoreUnavailable
	}

	var asset models.Asset
	if kind == KindVideo && o.prober != nil {
		seconds, err := o.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("probe video duration", "path", localPath, "error", err)
		} else {
			asset.Duration = seconds
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return models.Asset{}, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(string(kind), uuid.NewString()+strings.ToLower(filepath.Ext(localPath)))
	url, err := o.store.Save(ctx, key, f)
	if err != nil {
		return models.Asset{}, fmt.Errorf("upload %s: %w", kind, err)
	}

	asset.URL = url
	asset.Key = key
	return asset, nil
}

// UploadAll uploads files in order. When any upload fails the assets already
// stored are deleted and every remaining temp file is removed.
func (o *Orchestrator) UploadAll(ctx context.Context, files []LocalFile) ([]models.Asset, error) {
	assets := make([]models.Asset, 0, len(files))
	for i, file := range files {
		asset, err := o.Upload(ctx, file.Path, file.Kind)
		if err != nil {
			for _, rest := range files[i+1:] {
				removeTemp(ctx, rest.Path)
			}
			o.compensate(ctx, assets)
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// Discard schedules deletion of stored assets. Blank keys are ignored.
func (o *Orchestrator) Discard(ctx context.Context, keys ...string) {
	logger := logging.FromContext(ctx)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if o.janitor != nil {
			err := o.janitor.Enqueue(ctx, key)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrJanitorClosed) {
				logger.Warn("schedule blob cleanup", "key", key, "error", err)
				continue
			}
		}
		if o.store == nil {
			continue
		}
		if err := o.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			logger.Error("delete blob", "key", key, "error", err)
		}
	}
}

func (o *Orchestrator) compensate(ctx context.Context, assets []models.Asset) {
	if len(assets) == 0 || o.store == nil {
		return
	}
	logger := logging.FromContext(ctx)
	cleanupCtx := context.WithoutCancel(ctx)
	for _, asset := range assets {
		if err := o.store.Delete(cleanupCtx, asset.Key); err != nil {
			logger.Error("compensating blob delete", "key", asset.Key, "error", err)
		}
	}
}

func removeTemp(ctx context.Context, p string) {
	if p == "" {
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove temp upload", "path", p, "error", err)
	}
}
