package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wilsonalvesmartins/grapaz/db"
	"github.com/wilsonalvesmartins/grapaz/models"
)

// maxUploadSize limita o corpo do multipart (32 MiB, folga para notas em PDF).
const maxUploadSize = 32 << 20

// sanitizeFilename reduces a client-supplied name to its base component and
// keeps only letters, digits and dots, the same rule the original painel
// applied to stay filesystem-safe across platforms.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// UploadHandler trata POST /api/upload (multipart: file, type).
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file not received")
		return
	}
	defer file.Close()

	fileType := models.FileType(r.FormValue("type"))
	if !fileType.Valid() {
		writeError(w, http.StatusBadRequest, "type must be entry or exit")
		return
	}

	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeFilename(header.Filename))
	dest, err := os.Create(filepath.Join(h.UploadDir, storedName))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		os.Remove(dest.Name())
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	record := models.FileRecord{
		Filename:     storedName,
		OriginalName: header.Filename,
		Type:         fileType,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Store.AddFile(r.Context(), &record); err != nil {
		os.Remove(dest.Name())
		writeError(w, http.StatusInternalServerError, "failed to save file record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filename": storedName})
}

// ListFilesHandler trata GET /api/files, mais recentes primeiro, com filtro
// opcional ?type=entry|exit.
func (h *Handler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	fileType := models.FileType(r.URL.Query().Get("type"))
	if fileType != "" && !fileType.Valid() {
		writeError(w, http.StatusBadRequest, "type must be entry or exit")
		return
	}

	files, err := h.Store.GetAllFiles(r.Context(), fileType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// DeleteFileHandler trata DELETE /api/files/{id}. O registro no banco é a
// fonte de verdade; a remoção do arquivo físico é melhor esforço.
func (h *Handler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	record, err := h.Store.GetFile(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load file record")
		return
	}

	if err := h.Store.DeleteFile(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete file record")
		return
	}

	path := filepath.Join(h.UploadDir, filepath.Base(record.Filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove file %s from disk: %v", record.Filename, err)
	}

	writeSuccess(w)
}

// DownloadHandler trata GET /api/download/{filename}, servindo o arquivo como
// anexo. O nome é reduzido ao componente base antes de tocar o disco.
func (h *Handler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	// filepath.Base already strips any directory components, so a stored
	// name that happens to contain ".." (nota..pdf) is still servable.
	name := filepath.Base(strings.ReplaceAll(chi.URLParam(r, "filename"), "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
