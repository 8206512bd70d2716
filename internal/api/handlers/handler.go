// handler.go — основной обработчик API FileFlow.
// Объединяет файловые и share-обработчики, содержит общие
// помощники: сериализация ответов, DTO, трансляция доменных ошибок.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/fileflow/internal/api/errors"
	"github.com/bigkaa/fileflow/internal/api/middleware"
	"github.com/bigkaa/fileflow/internal/domain/model"
	"github.com/bigkaa/fileflow/internal/service"
)

// APIHandler — основной обработчик API FileFlow.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	uploadSvc   *service.UploadService
	downloadSvc *service.DownloadService
	deleteSvc   *service.DeleteService
	shareSvc    *service.ShareService
	browseSvc   *service.BrowseService
	logger      *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	uploadSvc *service.UploadService,
	downloadSvc *service.DownloadService,
	deleteSvc *service.DeleteService,
	shareSvc *service.ShareService,
	browseSvc *service.BrowseService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		uploadSvc:   uploadSvc,
		downloadSvc: downloadSvc,
		deleteSvc:   deleteSvc,
		shareSvc:    shareSvc,
		browseSvc:   browseSvc,
		logger:      logger.With(slog.String("component", "api_handler")),
	}
}

// fileResponse — API-представление записи файла.
type fileResponse struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	Owner      string    `json:"owner"`
	UploadDate time.Time `json:"upload_date"`
	Tags       []string  `json:"tags"`
}

// shareResponse — API-представление гранта доступа.
type shareResponse struct {
	FileID     int64     `json:"file_id"`
	SharedWith string    `json:"shared_with"`
	SharedBy   string    `json:"shared_by"`
	SharedDate time.Time `json:"shared_date"`
}

// toFileResponse конвертирует domain модель в API-тип.
func toFileResponse(r *model.FileRecord) fileResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return fileResponse{
		ID:         r.ID,
		FileName:   r.FileName,
		FileSize:   r.FileSize,
		Owner:      r.Owner,
		UploadDate: r.UploadDate,
		Tags:       tags,
	}
}

// toFileResponses конвертирует список записей.
func toFileResponses(records []*model.FileRecord) []fileResponse {
	resp := make([]fileResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, toFileResponse(r))
	}
	return resp
}

// writeJSON сериализует v в ответ с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// fileIDFromURL извлекает id файла из path-параметра {id}.
func fileIDFromURL(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError транслирует доменную ошибку сервисного слоя
// в HTTP-ответ стандартного формата. Необработанные ошибки логируются
// с request_id для сопоставления с access-логом.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		apierrors.NotFound(w, "Файл не найден")
	case errors.Is(err, service.ErrGrantNotFound):
		apierrors.NotFound(w, "Запись о предоставленном доступе не найдена")
	case errors.Is(err, service.ErrObjectNotFound):
		apierrors.ObjectNotFound(w, "Объект отсутствует в хранилище")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Недостаточно прав для операции с этим файлом")
	case errors.Is(err, service.ErrSelfShare):
		apierrors.Conflict(w, "Нельзя расшарить файл самому себе")
	case errors.Is(err, service.ErrAlreadyShared):
		apierrors.Conflict(w, "Файл уже расшарен этому пользователю")
	case errors.Is(err, service.ErrFileTooLarge):
		apierrors.FileTooLarge(w, "Размер файла превышает допустимый максимум")
	case errors.Is(err, service.ErrMetadataUnavailable):
		apierrors.MetadataUnavailable(w, "Реестр метаданных временно недоступен")
	case errors.Is(err, service.ErrObjectStoreUnavailable):
		apierrors.ObjectStoreUnavailable(w, "Объектное хранилище временно недоступно")
	case errors.Is(err, service.ErrInconsistent):
		apierrors.Inconsistent(w, "Операция оставила хранилища в несогласованном состоянии")
	default:
		h.logger.Error("Необработанная ошибка сервисного слоя",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		apierrors.InternalError(w, "Внутренняя ошибка")
	}
}
