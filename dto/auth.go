package dto

// ==================== AUTHENTICATION REQUEST DTOs ====================

type LoginProbeRequest struct {
	Login       string `json:"login" validate:"required,max=254" example:"user@example.com"`
	DeviceID    string `json:"device_id,omitempty" validate:"omitempty,max=128" example:"device_12345"`
	ChallengeID string `json:"challenge_id,omitempty" validate:"omitempty,challenge_id"`
	Solution    string `json:"solution,omitempty" validate:"required_with=ChallengeID,max=128" example:"17"`
}

func (r LoginProbeRequest) Validate() error {
	return GetValidator().Struct(r)
}

type LoginRequest struct {
	Login       string `json:"login" validate:"required,max=254" example:"user@example.com"`
	Password    string `json:"password" validate:"required,max=256" example:"SecurePass123!"`
	DeviceID    string `json:"device_id,omitempty" validate:"omitempty,max=128" example:"device_12345"`
	ChallengeID string `json:"challenge_id,omitempty" validate:"omitempty,challenge_id"`
	Solution    string `json:"solution,omitempty" validate:"required_with=ChallengeID,max=128" example:"17"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type SessionRequest struct {
	Token string `json:"token" validate:"required,access_token" example:"Qm9vdHN0cmFwLXRva2VuLXZhbHVlLWhlcmUtMTIzNDU2"`
}

func (s SessionRequest) Validate() error {
	return GetValidator().Struct(s)
}

// ==================== ERROR RESPONSE DTOs ====================

type ValidationError struct {
	Field   string `json:"field" example:"login"`
	Message string `json:"message" example:"login is required"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}
