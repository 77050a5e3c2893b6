package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clauselens/clauselens/internal/api"
	"github.com/clauselens/clauselens/internal/config"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".rtf":  true,
	".odt":  true,
}

// UploadHandler receives documents via multipart/form-data, stages them
// under the upload directory with collision-proof names, and returns the
// staged paths for a subsequent /process call.
func UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	targetDir, err := getTargetDirectory()
	if err != nil {
		logRH.Error("couldn't get upload directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "no files in 'documents' field")
		return
	}

	var staged []api.UploadedFile
	for _, header := range files {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedExtensions[ext] {
			WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
			return
		}
		if header.Size > config.MaxFileSize {
			WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("%s exceeds the per-file size limit", header.Filename))
			return
		}

		reader, err := header.Open()
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
		destPath := filepath.Join(targetDir, filename)
		dest, err := os.Create(destPath)
		if err != nil {
			reader.Close()
			WriteErrorResponse(w, http.StatusInternalServerError, "storage error")
			return
		}

		written, err := io.Copy(dest, reader)
		reader.Close()
		dest.Close()
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, "write error")
			return
		}

		staged = append(staged, api.UploadedFile{Name: header.Filename, Path: destPath, Size: written})
	}

	logRH.Info("staged uploaded documents", "traceId", traceOf(r), "count", len(staged))
	writeResult(w, http.StatusOK, map[string]interface{}{"uploaded": staged})
}

func getTargetDirectory() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}

	targetDir := filepath.Join(root, config.TempUploadDirName)
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}
