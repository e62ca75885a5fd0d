// Package handlers — HTTP-обработчики публичного API wishlist-service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/pribylovaa/wishlist-service/internal/errors"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/service"
)

// Ограничение на размер JSON-тела запроса.
const maxBodyBytes = 64 << 10

// WishlistService — операции сервисного слоя, нужные обработчикам.
type WishlistService interface {
	AppendComment(ctx context.Context, in service.AppendCommentInput) (*models.Comment, error)
	AddReaction(ctx context.Context, in service.AddReactionInput) (models.ReactionOutcome, error)
	WishlistByID(ctx context.Context, session *models.Session, id string) (*models.Wishlist, error)
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc      WishlistService
	validate *validator.Validate
}

func New(svc WishlistService) *Handlers {
	return &Handlers{
		svc:      svc,
		validate: newValidator(),
	}
}

// newValidator — валидатор, который называет поля по json-тегу.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	return v
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер с последующей валидацией:
//   - неизвестные поля, лишние данные после объекта и битый JSON -> ErrMalformedBody;
//   - нарушение validate-тегов -> *apierrors.ValidationError с деталями по полям.
func (h *Handlers) decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
	}

	if dec.More() {
		return fmt.Errorf("%w: trailing data", apierrors.ErrMalformedBody)
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
		}

		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}

		return &apierrors.ValidationError{Fields: fields}
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "is invalid"
	}
}
