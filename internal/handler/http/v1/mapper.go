package v1

import "github.com/shenikar/mangrove_watch/internal/models"

// DTOToNewIncident преобразует DTO создания в входные данные сервиса
func DTOToNewIncident(dto CreateIncidentRequest) models.NewIncident {
	return models.NewIncident{
		Type:        dto.Type,
		Location:    dto.Location,
		Description: dto.Description,
		Severity:    dto.Severity,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		Type:        model.Type,
		Location:    model.Location,
		Description: model.Description,
		Severity:    string(model.Severity),
		Status:      string(model.Status),
		ReporterID:  model.ReporterID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

func DTOToNewProfile(dto CreateProfileRequest) models.NewProfile {
	return models.NewProfile{
		FullName: dto.FullName,
		Email:    dto.Email,
		Location: dto.Location,
		Type:     dto.Type,
	}
}

func DTOToProfileUpdate(dto UpdateProfileRequest) models.ProfileUpdate {
	return models.ProfileUpdate{
		FullName:  dto.FullName,
		Location:  dto.Location,
		AvatarURL: dto.AvatarURL,
	}
}

func ModelToProfileResponse(model *models.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:        model.ID,
		FullName:  model.FullName,
		Email:     model.Email,
		AvatarURL: model.AvatarURL,
		Location:  model.Location,
		Type:      string(model.Type),
		Role:      string(model.Role),
		Points:    model.Points,
		Tier:      string(model.Tier),
		JoinDate:  model.JoinDate,
		UpdatedAt: model.UpdatedAt,
	}
}

func ModelsToProfileResponses(models []*models.Profile) []*ProfileResponse {
	responses := make([]*ProfileResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToProfileResponse(model)
	}
	return responses
}

// ModelsToContributorResponses разворачивает профиль участника в плоскую строку рейтинга
func ModelsToContributorResponses(contributors []models.Contributor) []*ContributorResponse {
	responses := make([]*ContributorResponse, len(contributors))
	for i, c := range contributors {
		responses[i] = &ContributorResponse{
			Rank:      c.Rank,
			ID:        c.Profile.ID,
			FullName:  c.Profile.FullName,
			AvatarURL: c.Profile.AvatarURL,
			Type:      string(c.Profile.Type),
			Points:    c.Profile.Points,
			Tier:      string(c.Profile.Tier),
			JoinDate:  c.Profile.JoinDate,
		}
	}
	return responses
}

func ModelsToTierResponses(levels []models.TierLevel) []*TierResponse {
	responses := make([]*TierResponse, len(levels))
	for i, level := range levels {
		responses[i] = &TierResponse{
			Tier:      string(level.Tier),
			MinPoints: level.MinPoints,
			Benefits:  level.Benefits,
		}
	}
	return responses
}

func ModelToDashboardResponse(stats *models.DashboardStats) *DashboardResponse {
	recent := make([]*RecentIncidentResponse, len(stats.RecentIncidents))
	for i, s := range stats.RecentIncidents {
		recent[i] = &RecentIncidentResponse{
			ID:           s.ID,
			Type:         s.Type,
			Location:     s.Location,
			Status:       string(s.Status),
			ReporterName: s.ReporterName,
			CreatedAt:    s.CreatedAt,
		}
	}
	return &DashboardResponse{
		NewIncidents:           stats.NewIncidents,
		InvestigatingIncidents: stats.InvestigatingIncidents,
		ResolvedIncidents:      stats.ResolvedIncidents,
		DismissedIncidents:     stats.DismissedIncidents,
		TotalIncidents:         stats.TotalIncidents,
		TotalProfiles:          stats.TotalProfiles,
		TotalPoints:            stats.TotalPoints,
		RecentIncidents:        recent,
	}
}
