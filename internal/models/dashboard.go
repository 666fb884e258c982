package models

// DashboardStats - сводка по инцидентам и участникам
type DashboardStats struct {
	NewIncidents           int                `json:"new_incidents"`
	InvestigatingIncidents int                `json:"investigating_incidents"`
	ResolvedIncidents      int                `json:"resolved_incidents"`
	DismissedIncidents     int                `json:"dismissed_incidents"`
	TotalIncidents         int                `json:"total_incidents"`
	TotalProfiles          int                `json:"total_profiles"`
	TotalPoints            int                `json:"total_points"`
	RecentIncidents        []*IncidentSummary `json:"recent_incidents"`
}
