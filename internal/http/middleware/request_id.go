package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID — заголовок корреляции запросов.
const HeaderRequestID = "X-Request-Id"

// Максимальная длина входящего X-Request-Id; более длинные заменяются новым.
const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestID обеспечивает наличие X-Request-Id:
//  1. берёт значение из заголовка запроса, если оно есть и разумной длины;
//  2. иначе генерирует новый id (uuid v4 без дефисов, 32 hex-символа);
//  3. пишет id в заголовок ответа, заголовок запроса (его читает
//     errors.WriteError) и в контекст.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if id == "" || len(id) > maxRequestIDLen {
				id = newRequestID()
			}

			r.Header.Set(HeaderRequestID, id)
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom возвращает id запроса из контекста ("" если мидлвар не подключён).
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func newRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
