package model

import "time"

type ChallengeKind string

const (
	ChallengeArithmetic  ChallengeKind = "arithmetic"
	ChallengeProofOfWork ChallengeKind = "proof_of_work"
)

// Challenge lives only in redis. Answer is never sent to the client.
type Challenge struct {
	ID              string        `json:"challenge_id"`
	Kind            ChallengeKind `json:"kind"`
	Question        string        `json:"question,omitempty"`
	Answer          string        `json:"-"`
	Prefix          string        `json:"prefix,omitempty"`
	Difficulty      int           `json:"difficulty,omitempty"`
	BoundIdentifier string        `json:"-"`
	BoundResource   string        `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
}

// AccessToken is stored under the hash of Token; the raw value is only known at mint time.
type AccessToken struct {
	Token           string    `json:"token,omitempty"`
	ResourceID      string    `json:"resource_id"`
	BoundIdentifier string    `json:"-"`
	Subject         string    `json:"-"`
	IssuedAt        time.Time `json:"issued_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	Consumed        bool      `json:"consumed"`
}

type ThreatRecord struct {
	Identifier      string        `json:"identifier"`
	Failures        int64         `json:"failures"`
	WindowStartedAt *time.Time    `json:"window_started_at,omitempty"`
	ExpiresIn       time.Duration `json:"expires_in"`
	BlockedFor      time.Duration `json:"blocked_for,omitempty"`
	Banned          bool          `json:"banned"`
}

const (
	ScopeIP      = "ip"
	ScopeAccount = "account"
	ScopeDevice  = "device"
)

type Identifier struct {
	Scope string
	Value string
}

func (i Identifier) String() string {
	return i.Scope + ":" + i.Value
}

// Actor groups every identifier seen on one request. Account is already a keyed hash.
type Actor struct {
	IP      string
	Account string
	Device  string
}

func (a Actor) Identifiers() []Identifier {
	ids := make([]Identifier, 0, 3)
	if a.IP != "" {
		ids = append(ids, Identifier{Scope: ScopeIP, Value: a.IP})
	}
	if a.Account != "" {
		ids = append(ids, Identifier{Scope: ScopeAccount, Value: a.Account})
	}
	if a.Device != "" {
		ids = append(ids, Identifier{Scope: ScopeDevice, Value: a.Device})
	}
	return ids
}

// Bound is the identifier challenges and tokens are tied to.
func (a Actor) Bound() string {
	return Identifier{Scope: ScopeIP, Value: a.IP}.String()
}
