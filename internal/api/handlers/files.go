// files.go — HTTP handlers файловых операций FileFlow.
// Upload (одиночный и множественный), Download, Delete, листинги каталога.
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/fileflow/internal/api/errors"
	"github.com/bigkaa/fileflow/internal/api/middleware"
	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/service"
)

// multipartMemoryLimit — объём формы, удерживаемый в памяти при парсинге.
// Файлы сверх лимита буферизуются во временные файлы.
const multipartMemoryLimit = 32 << 20 // 32 MB

// UploadFile обрабатывает POST /api/v1/files/upload.
// Multipart form: file (обязательно), tags (опционально, повторяемое поле).
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	owner := middleware.SubjectFromContext(r.Context())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	record, err := h.uploadSvc.Upload(r.Context(), service.UploadParams{
		Reader:      file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Owner:       owner,
		Tags:        r.Form["tags"],
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(record))
}

// UploadMultipleFiles обрабатывает POST /api/v1/files/upload-multiple.
// Multipart form: files (повторяемое поле), tags (опционально, общие для всех).
// Файлы загружаются последовательно; при ошибке загрузка прерывается,
// уже загруженные файлы остаются.
func (h *APIHandler) UploadMultipleFiles(w http.ResponseWriter, r *http.Request) {
	owner := middleware.SubjectFromContext(r.Context())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		apierrors.ValidationError(w, "Поле 'files' обязательно")
		return
	}

	tags := r.Form["tags"]
	resp := make([]fileResponse, 0, len(headers))
	for _, header := range headers {
		record, err := h.uploadOne(r, header, owner, tags)
		if err != nil {
			h.logger.Warn("Множественная загрузка прервана",
				slog.String("file_name", header.Filename),
				slog.Int("uploaded", len(resp)),
				slog.String("error", err.Error()),
			)
			h.writeServiceError(w, r, err)
			return
		}
		resp = append(resp, toFileResponse(record))
	}

	writeJSON(w, http.StatusCreated, resp)
}

// uploadOne загружает один файл из multipart-части.
func (h *APIHandler) uploadOne(r *http.Request, header *multipart.FileHeader, owner string, tags []string) (*model.FileRecord, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("открытие multipart-части: %w", err)
	}
	defer file.Close()

	return h.uploadSvc.Upload(r.Context(), service.UploadParams{
		Reader:      file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Owner:       owner,
		Tags:        tags,
	})
}

// DownloadFile обрабатывает GET /api/v1/files/{id}/download.
// Streaming блоба с Content-Disposition: attachment.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := fileIDFromURL(r)
	if !ok {
		apierrors.ValidationError(w, "Некорректный идентификатор файла")
		return
	}

	requester := middleware.SubjectFromContext(r.Context())
	result, err := h.downloadSvc.Download(r.Context(), id, requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer result.Reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Record.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(result.Record.FileSize, 10))

	if _, err := io.Copy(w, result.Reader); err != nil {
		// Заголовки уже отправлены — только логируем
		h.logger.Error("Ошибка streaming download",
			slog.Int64("file_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteFile обрабатывает DELETE /api/v1/files/{id}.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := fileIDFromURL(r)
	if !ok {
		apierrors.ValidationError(w, "Некорректный идентификатор файла")
		return
	}

	requester := middleware.SubjectFromContext(r.Context())
	if err := h.deleteSvc.Delete(r.Context(), id, requester); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFiles обрабатывает GET /api/v1/files.
// Требуется ровно один фильтр: owner, tag или q (поиск по имени).
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	tag := r.URL.Query().Get("tag")
	query := r.URL.Query().Get("q")

	filters := 0
	for _, f := range []string{owner, tag, query} {
		if f != "" {
			filters++
		}
	}
	if filters != 1 {
		apierrors.ValidationError(w, "Требуется ровно один параметр фильтра: owner, tag или q")
		return
	}

	var (
		records []*model.FileRecord
		err     error
	)
	switch {
	case owner != "":
		records, err = h.browseSvc.ByOwner(r.Context(), owner)
	case tag != "":
		records, err = h.browseSvc.ByTag(r.Context(), tag)
	default:
		records, err = h.browseSvc.SearchByName(r.Context(), query)
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(records))
}
