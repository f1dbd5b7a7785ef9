package models

type NewcomersStats struct {
	Total        int `json:"total"`
	Connected    int `json:"connected"`
	NotConnected int `json:"not_connected"`
}

type GroupsStats struct {
	Total         int `json:"total"`
	Pending       int `json:"pending"`
	AtCapacity    int `json:"at_capacity"`
	NotAtCapacity int `json:"not_at_capacity"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type RequestsStats struct {
	Outstanding      int           `json:"outstanding"`
	Archived         int           `json:"archived"`
	ArchivedByReason []ReasonCount `json:"archived_by_reason"`
}
