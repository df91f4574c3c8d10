package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/recovery"
	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/model"
)

const (
	msgLoginRequired  = "로그인이 필요합니다."
	msgNotConfigured  = "서버 설정이 필요합니다."
	msgAdminRequired  = "서버 설정이 필요합니다. 서비스 롤 키를 추가해 주세요."
	msgNameTaken      = "이미 사용 중인 닉네임입니다."
	msgInvalidJSON    = "Invalid JSON"
	msgNotFound       = "Not found"
	msgInternalServer = recovery.Message
)

// statusFor maps a service error to its HTTP status and user-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, msgLoginRequired
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, msgNameTaken
	case errors.Is(err, model.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgNotConfigured
	default:
		return http.StatusInternalServerError, msgInternalServer
	}
}

// writeServiceError writes the mapped error and logs server-side failures with
// op. The request logger already carries request_id.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).Str("op", op).Msg("request failed")
	}
	respond.WriteError(w, code, msg)
}
