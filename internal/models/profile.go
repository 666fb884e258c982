package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type ProfileType string

const (
	ProfileTypeNGO        ProfileType = "NGO"
	ProfileTypeCommunity  ProfileType = "Community"
	ProfileTypeIndividual ProfileType = "Individual"
	ProfileTypeGovernment ProfileType = "Government"
)

type Profile struct {
	ID        uuid.UUID   `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	AvatarURL string      `json:"avatar_url"`
	Location  string      `json:"location"`
	Type      ProfileType `json:"type"`
	Role      Role        `json:"role"`
	Points    int         `json:"points"`
	Tier      Tier        `json:"tier"`
	JoinDate  time.Time   `json:"join_date"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewProfile - данные профиля при первой аутентификации
type NewProfile struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Location string `json:"location" validate:"max=255"`
	Type     string `json:"type" validate:"omitempty,oneof=NGO Community Individual Government"`
}

// ProfileUpdate - изменяемые пользователем поля профиля, nil означает "без изменений"
type ProfileUpdate struct {
	FullName  *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Location  *string `json:"location" validate:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// Contributor - позиция профиля в таблице лидеров
type Contributor struct {
	Rank    int      `json:"rank"`
	Profile *Profile `json:"profile"`
}

// Caller - идентичность и роль вызывающего, передаются в каждую операцию явно
type Caller struct {
	ProfileID uuid.UUID
	Role      Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanAccess - доступ к чужим ресурсам есть только у администратора
func (c Caller) CanAccess(ownerID uuid.UUID) bool {
	return c.IsAdmin() || c.ProfileID == ownerID
}
