package uploads

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Faith-tech-code/safemove/internal/auth"
)

// maxFileSize caps uploads at 5 MB.
const maxFileSize = 5 << 20

// allowedMimes lists the accepted document types: images and PDFs.
var allowedMimes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// allowedExts are the extensions a stored file may carry.
var allowedExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".pdf": true,
}

// Handler stores driver verification documents on disk and serves them
// back under /uploads/.
type Handler struct {
	dir string
	mw  *auth.Middleware
}

// NewHandler creates the upload handler; dir is created if missing.
func NewHandler(dir string, mw *auth.Middleware) (*Handler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Handler{dir: dir, mw: mw}, nil
}

// Routes returns a chi.Router for the /upload mount point.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.mw.RequireAuth)
	r.Post("/", h.Upload)
	return r
}

// FileServer serves the stored files; mount it at /uploads.
func (h *Handler) FileServer() http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.dir)))
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxFileSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File too large. Maximum size is 5MB."})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	ext, ok := allowedMimes[mimeType]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid file type. Only images and PDFs are allowed."})
		return
	}
	// The client's extension is honored only when it maps to an
	// allowed type; otherwise the mime-derived one sticks.
	if e := strings.ToLower(filepath.Ext(header.Filename)); allowedExts[e] {
		ext = e
	}

	name := fmt.Sprintf("%s-%d-%04d%s", user.ID, time.Now().UnixMilli(), randSuffix(), ext)
	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(file, maxFileSize))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":      "/uploads/" + name,
		"mimeType": mimeType,
		"filename": header.Filename,
		"size":     size,
	})
}

func randSuffix() uint64 {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return binary.BigEndian.Uint64(buf[:]) % 10000
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
