// shares.go — HTTP handlers управления грантами доступа.
// Share, Revoke и листинги расшаренных файлов.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/fileflow/internal/api/errors"
	"github.com/bigkaa/fileflow/internal/api/middleware"
)

// shareRequest — тело запроса POST /api/v1/files/{id}/share.
type shareRequest struct {
	SharedWith string `json:"shared_with"`
}

// ShareFile обрабатывает POST /api/v1/files/{id}/share.
func (h *APIHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	id, ok := fileIDFromURL(r)
	if !ok {
		apierrors.ValidationError(w, "Некорректный идентификатор файла")
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: ожидается JSON с полем shared_with")
		return
	}
	if req.SharedWith == "" {
		apierrors.ValidationError(w, "Поле shared_with обязательно")
		return
	}

	requester := middleware.SubjectFromContext(r.Context())
	grant, err := h.shareSvc.Share(r.Context(), id, requester, req.SharedWith)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, shareResponse{
		FileID:     grant.FileID,
		SharedWith: grant.SharedWith,
		SharedBy:   grant.SharedBy,
		SharedDate: grant.SharedDate,
	})
}

// RevokeShare обрабатывает DELETE /api/v1/files/{id}/share/{user}.
func (h *APIHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	id, ok := fileIDFromURL(r)
	if !ok {
		apierrors.ValidationError(w, "Некорректный идентификатор файла")
		return
	}

	sharedWith := chi.URLParam(r, "user")
	if sharedWith == "" {
		apierrors.ValidationError(w, "Не указан пользователь для отзыва доступа")
		return
	}

	requester := middleware.SubjectFromContext(r.Context())
	if err := h.shareSvc.Revoke(r.Context(), id, requester, sharedWith); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SharedWithMe обрабатывает GET /api/v1/shares/with-me.
// Файлы, доступ к которым предоставлен текущему пользователю.
func (h *APIHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	requester := middleware.SubjectFromContext(r.Context())
	records, err := h.shareSvc.SharedWithMe(r.Context(), requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(records))
}

// SharedByMe обрабатывает GET /api/v1/shares/by-me.
// Файлы, которые текущий пользователь расшарил другим.
func (h *APIHandler) SharedByMe(w http.ResponseWriter, r *http.Request) {
	requester := middleware.SubjectFromContext(r.Context())
	records, err := h.shareSvc.SharedByMe(r.Context(), requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(records))
}
