package domain

// ============================================================
// Dev Tools: seed data for local environments
// ============================================================

// DevSeedRequest is the body for POST /v1/dev/seed.
type DevSeedRequest struct {
	Leads int `json:"leads" validate:"gte=0,lte=200"`
	Jobs  int `json:"jobs" validate:"gte=0,lte=200"`
}

// DevSeedResponse reports what was created.
type DevSeedResponse struct {
	Success bool     `json:"success"`
	LeadIDs []string `json:"leadIds"`
	JobIDs  []string `json:"jobIds"`
	Message string   `json:"message"`
}
