package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exploremore-ph/exploremore/internal/audit"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/storage"
)

const maxImageBytes = 8 << 20

var imageTypes = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true, ".svg": true,
}

// MountImages serves GET /* from the blob store.
func MountImages(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = io.Copy(w, rc)
	})
}

// POST /api/admin/images/{name} (multipart "file")
func UploadImageHandler(bs storage.BlobStore, events audit.Appender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		key, err := storage.CleanKey(name)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !imageTypes[strings.ToLower(path.Ext(key))] {
			fail(w, http.StatusBadRequest, "bad_request", "unsupported image type")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		f, _, err := r.FormFile("file")
		if err != nil {
			fail(w, http.StatusBadRequest, "bad_request", "file required")
			return
		}
		defer f.Close()

		key, err = bs.Put(key, f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if events != nil {
			if err := events.Append(r.Context(), audit.TypeImageUploaded, "image:"+key, nil); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("audit append failed")
			}
		}
		ok(w, http.StatusCreated, map[string]any{"key": key, "url": bs.URL(key)})
	}
}

func ListImagesHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := bs.List()
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"images": keys})
	}
}
