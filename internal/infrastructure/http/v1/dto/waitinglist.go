package dto

// JoinListRequest for POST /waiting-lists/:name/entries.
type JoinListRequest struct {
	ApplicationID string `json:"applicationId" binding:"required,uuid"`

	// Attributes feed the list's eligibility rule, if one is configured.
	Attributes map[string]any `json:"attributes"`
}

// PositionResponse for GET /waiting-lists/:name/position/:applicationId.
type PositionResponse struct {
	ListName      string `json:"listName"`
	ApplicationID string `json:"applicationId"`
	Position      int    `json:"position"`
}
