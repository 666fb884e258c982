package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("invalid incident state")
	ErrAuthorization     = errors.New("caller is not authorized")
	ErrPersistence       = errors.New("persistence failure")

	// ErrIncrementUnsupported - хранилище не поддерживает атомарный инкремент
	ErrIncrementUnsupported = errors.New("atomic increment is not supported")
	// ErrStaleStatus - статус инцидента изменился между чтением и записью
	ErrStaleStatus = errors.New("incident status changed concurrently")
	// ErrAlreadyExists - строка с таким ключом уже сохранена
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError - некорректное значение одного поля входных данных
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
