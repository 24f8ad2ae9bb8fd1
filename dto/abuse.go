package dto

import "time"

type AbuseCheck struct {
	Name          string `json:"name"`
	Passed        bool   `json:"passed"`
	Reason        string `json:"reason"`
	Weight        int    `json:"weight"`
	Informational bool   `json:"informational,omitempty"`
}

type AbuseReport struct {
	UserID          string       `json:"user_id"`
	Tier            string       `json:"tier"`
	Score           int          `json:"score"`
	Flagged         bool         `json:"flagged"`
	WindowDays      int          `json:"window_days"`
	Checks          []AbuseCheck `json:"checks"`
	Recommendations []string     `json:"recommendations"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

type IPUploadReport struct {
	IPHash  string `json:"ip_hash"`
	Uploads int64  `json:"uploads"`
	Limit   int    `json:"limit"`
	Passed  bool   `json:"passed"`
	Reason  string `json:"reason"`
}
