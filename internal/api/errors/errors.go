// Пакет errors — конструкторы стандартных ошибок в формате FileFlow.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib допустим внутри api

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeNotFound               = "NOT_FOUND"
	CodeObjectNotFound         = "OBJECT_NOT_FOUND"
	CodeConflict               = "CONFLICT"
	CodeFileTooLarge           = "FILE_TOO_LARGE"
	CodeMetadataUnavailable    = "METADATA_UNAVAILABLE"
	CodeObjectStoreUnavailable = "OBJECT_STORE_UNAVAILABLE"
	CodeInconsistent           = "INCONSISTENT"
	CodeInternalError          = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате FileFlow.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound — 404 запись о файле или грант не найдены.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// ObjectNotFound — 404 метаданные есть, блоб отсутствует в хранилище.
func ObjectNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeObjectNotFound, message)
}

// Conflict — 409 дубликат гранта или self-share.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// MetadataUnavailable — 503 реестр метаданных недоступен.
func MetadataUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, CodeMetadataUnavailable, message)
}

// ObjectStoreUnavailable — 503 объектное хранилище недоступно.
func ObjectStoreUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, CodeObjectStoreUnavailable, message)
}

// Inconsistent — 500 операция оставила хранилища в несогласованном состоянии.
func Inconsistent(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInconsistent, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
