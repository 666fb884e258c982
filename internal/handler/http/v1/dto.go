package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Type        string `json:"type" example:"Illegal Logging"`
	Location    string `json:"location" example:"Sector A-7, north bank"`
	Description string `json:"description" example:"Fresh stumps along the creek"`
	Severity    string `json:"severity" example:"high" enums:"low,medium,high,critical"`
}

// UpdateStatusRequest DTO для смены статуса инцидента
// @Description DTO для смены статуса инцидента
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"resolved" enums:"new,investigating,resolved,dismissed"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	ReporterID  uuid.UUID `json:"reporter_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProfileRequest DTO для создания профиля при первом входе
// @Description DTO для создания профиля при первом входе
type CreateProfileRequest struct {
	FullName string `json:"full_name" example:"Amina Diallo"`
	Email    string `json:"email" example:"amina@example.org"`
	Location string `json:"location" example:"Lamu, Kenya"`
	Type     string `json:"type" example:"Community" enums:"NGO,Community,Individual,Government"`
}

// UpdateProfileRequest DTO для изменения профиля, отсутствующие поля не меняются
// @Description DTO для изменения профиля
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty"`
	Location  *string `json:"location,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// AwardPointsRequest DTO для ручного начисления очков
// @Description DTO для ручного начисления очков
type AwardPointsRequest struct {
	Amount int `json:"amount" example:"50"`
}

// ProfileResponse DTO для ответа с профилем
// @Description DTO для ответа с профилем
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	Location  string    `json:"location"`
	Type      string    `json:"type"`
	Role      string    `json:"role"`
	Points    int       `json:"points"`
	Tier      string    `json:"tier"`
	JoinDate  time.Time `json:"join_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContributorResponse DTO строки таблицы лидеров
// @Description DTO строки таблицы лидеров
type ContributorResponse struct {
	Rank      int       `json:"rank"`
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Type      string    `json:"type"`
	Points    int       `json:"points"`
	Tier      string    `json:"tier"`
	JoinDate  time.Time `json:"join_date"`
}

// TierResponse DTO уровня геймификации
// @Description DTO уровня геймификации
type TierResponse struct {
	Tier      string   `json:"tier"`
	MinPoints int      `json:"min_points"`
	Benefits  []string `json:"benefits"`
}

// RecentIncidentResponse DTO последнего инцидента на панели администратора
type RecentIncidentResponse struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
	ReporterName string    `json:"reporter_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardResponse DTO для ответа со статистикой
// @Description DTO для ответа со статистикой
type DashboardResponse struct {
	NewIncidents           int                       `json:"new_incidents"`
	InvestigatingIncidents int                       `json:"investigating_incidents"`
	ResolvedIncidents      int                       `json:"resolved_incidents"`
	DismissedIncidents     int                       `json:"dismissed_incidents"`
	TotalIncidents         int                       `json:"total_incidents"`
	TotalProfiles          int                       `json:"total_profiles"`
	TotalPoints            int                       `json:"total_points"`
	RecentIncidents        []*RecentIncidentResponse `json:"recent_incidents"`
}
