package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/webhook"
	"github.com/sirupsen/logrus"
)

// TxManager выполняет fn в одной транзакции хранилища
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// newValidator создает валидатор, который называет поля по json-тегам
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct превращает первую ошибку валидатора в ValidationError
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &models.ValidationError{Field: fe.Field(), Message: describeFieldError(fe)}
	}
	return err
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// publish отправляет событие; ошибка публикации не отменяет уже зафиксированную операцию
func publish(ctx context.Context, publisher webhook.WebhookPublisher, log *logrus.Entry, event webhook.WebhookEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("event_type", event.Type).Warn("Failed to publish event")
	}
}

func requireAdmin(caller models.Caller) error {
	if !caller.IsAdmin() {
		return models.ErrAuthorization
	}
	return nil
}
