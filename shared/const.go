package shared

const (
	UserID = "user_id"

	TierFree = "free"
	TierPro  = "pro"
	TierMax  = "max"

	KeyThreat        = "threat"
	KeyBan           = "ban"
	KeyBlock         = "block"
	KeyBlockServed   = "served"
	KeyChallenge     = "challenge"
	KeyChallengeUsed = "challenge:used"
	KeyToken         = "token"
	KeyClearance     = "clear"
	KeyUniqueDL      = "dl:uniq"
	KeyRateLimit     = "rl"

	ResourceLogin = "login"

	SeverityWarning  = "warning"
	SeverityCritical = "critical"

	EventSecurityViolation = "security.violation"
	EventPermanentBlock    = "security.permanent_block"
	EventResourceLocked    = "security.resource_locked"
	EventAbuseReport       = "abuse.report"
)
