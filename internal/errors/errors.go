// errors стандартизирует ответы об ошибках HTTP-слоя wishlist-service.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - краткое безопасное message без утечки деталей.
//
// Ошибки валидации и аутентификации получают конкретные сообщения,
// ошибки хранилища всегда деградируют до общего 500.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/wishlist-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrMalformedBody — тело запроса не разбирается как ожидаемый JSON.
var ErrMalformedBody = errors.New("malformed request body")

// ValidationError — тело разобрано, но поля не прошли проверку.
// Fields: имя поля в JSON -> причина.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

// Unwrap делает ValidationError разновидностью service.ErrInvalidArgument.
func (e *ValidationError) Unwrap() error { return service.ErrInvalidArgument }

// APIError — единый формат для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Таблица:
//   - ErrEmptyText/ErrTextTooLong/ErrEmptyEmoji/ErrEmojiTooLong/ErrInvalidID,
//     ValidationError, ErrMalformedBody -> 400 invalid_argument;
//   - ErrUnauthenticated -> 401 unauthenticated;
//   - ErrNotFound -> 404 not_found;
//   - ErrConflict -> 409 conflict;
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504;
//   - err == nil и прочее -> 500 internal.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	resp := ErrorResponse{Error: APIError{Code: code, Message: msg}}

	var ve *ValidationError
	if errors.As(err, &ve) {
		resp.Error.Details = ve.Fields
	}

	return status, resp
}

func classify(err error) (int, string, string) {
	const invalid = "invalid_argument"

	var ve *ValidationError

	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrEmptyText):
		return http.StatusBadRequest, invalid, "comment text is required"
	case errors.Is(err, service.ErrTextTooLong):
		return http.StatusBadRequest, invalid, "comment text is too long"
	case errors.Is(err, service.ErrEmptyEmoji):
		return http.StatusBadRequest, invalid, "emoji is required"
	case errors.Is(err, service.ErrEmojiTooLong):
		return http.StatusBadRequest, invalid, "emoji is too long"
	case errors.Is(err, service.ErrInvalidID):
		return http.StatusBadRequest, invalid, "invalid id"
	case errors.As(err, &ve):
		return http.StatusBadRequest, invalid, "validation failed"
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, invalid, "invalid request body"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, invalid, "invalid argument"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "not authenticated"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict", "concurrent update, retry the request"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
