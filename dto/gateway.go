package dto

import "time"

// ==================== GATEWAY REQUEST DTOs ====================

type FileProbeRequest struct {
	DeviceID    string `json:"device_id,omitempty" validate:"omitempty,max=128" example:"device_12345"`
	ChallengeID string `json:"challenge_id,omitempty" validate:"omitempty,challenge_id"`
	Solution    string `json:"solution,omitempty" validate:"required_with=ChallengeID,max=128"`
}

func (r FileProbeRequest) Validate() error {
	return GetValidator().Struct(r)
}

type FilePasswordRequest struct {
	Password    string `json:"password" validate:"required,max=256" example:"hunter2"`
	DeviceID    string `json:"device_id,omitempty" validate:"omitempty,max=128"`
	ChallengeID string `json:"challenge_id,omitempty" validate:"omitempty,challenge_id"`
	Solution    string `json:"solution,omitempty" validate:"required_with=ChallengeID,max=128"`
}

func (r FilePasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type InitiateDownloadRequest struct {
	DeviceID    string `json:"device_id,omitempty" validate:"omitempty,max=128"`
	ChallengeID string `json:"challenge_id,omitempty" validate:"omitempty,challenge_id"`
	Solution    string `json:"solution,omitempty" validate:"required_with=ChallengeID,max=128"`
}

func (r InitiateDownloadRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== GATEWAY RESPONSE DTOs ====================

type ChallengeView struct {
	ChallengeID string `json:"challenge_id"`
	Kind        string `json:"kind"`
	Question    string `json:"question,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Difficulty  int    `json:"difficulty,omitempty"`
	ExpiresIn   int64  `json:"expires_in"`
}

type GateResponse struct {
	Allowed           bool           `json:"allowed"`
	Blocked           bool           `json:"blocked,omitempty"`
	Permanent         bool           `json:"permanent,omitempty"`
	Locked            bool           `json:"locked,omitempty"`
	RetryAfterSeconds int64          `json:"retry_after_seconds,omitempty"`
	Challenge         *ChallengeView `json:"challenge,omitempty"`
	AttemptsRemaining *int           `json:"attempts_remaining,omitempty"`
}

type AccessTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type DownloadResponse struct {
	URL       string `json:"url"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	ExpiresIn int64  `json:"expires_in"`
}

// ==================== LEDGER ADMIN DTOs ====================

type LedgerQuery struct {
	IP     string `query:"ip" validate:"omitempty,ip"`
	Login  string `query:"login" validate:"omitempty,max=254"`
	Device string `query:"device" validate:"omitempty,max=128"`
}

func (q LedgerQuery) Validate() error {
	return GetValidator().Struct(q)
}

func (q LedgerQuery) Empty() bool {
	return q.IP == "" && q.Login == "" && q.Device == ""
}

type LedgerRecordView struct {
	Identifier        string     `json:"identifier"`
	Failures          int64      `json:"failures"`
	WindowStartedAt   *time.Time `json:"window_started_at,omitempty"`
	ExpiresInSeconds  int64      `json:"expires_in_seconds"`
	BlockedForSeconds int64      `json:"blocked_for_seconds,omitempty"`
	Banned            bool       `json:"banned"`
}

type LedgerResponse struct {
	Level   int64              `json:"level"`
	Action  string             `json:"action"`
	Records []LedgerRecordView `json:"records"`
}

// GateResult is a gateway decision rendered for the transport layer.
// Body holds a GateResponse, or an AccessTokenResponse once access is granted.
type GateResult struct {
	Status            int
	Message           string
	RetryAfterSeconds int64
	Body              interface{}
}
