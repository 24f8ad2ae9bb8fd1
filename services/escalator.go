package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lac-hong-legacy/sharegate/shared"
)

// Action is the defensive response the ladder assigns to a threat level.
// Values are ordered from least to most restrictive.
type Action int

const (
	ActionNone Action = iota
	ActionArithmetic
	ActionProofOfWork
	ActionTimedBlock
	ActionPermanentBlock
)

var actionNames = map[Action]string{
	ActionNone:           "none",
	ActionArithmetic:     "arithmetic_challenge",
	ActionProofOfWork:    "proof_of_work",
	ActionTimedBlock:     "timed_block",
	ActionPermanentBlock: "permanent_block",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) IsChallenge() bool {
	return a == ActionArithmetic || a == ActionProofOfWork
}

func (a Action) IsBlock() bool {
	return a == ActionTimedBlock || a == ActionPermanentBlock
}

func ParseAction(name string) (Action, error) {
	for action, n := range actionNames {
		if n == name {
			return action, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown ladder action %q", name)
}

const maxProofOfWorkDifficulty = 8

type Step struct {
	MinFailures int64
	Action      Action
	Difficulty  int
	BlockFor    time.Duration
}

// compareSteps orders steps by restrictiveness: action first, then PoW
// difficulty, then block duration.
func compareSteps(a, b Step) int {
	switch {
	case a.Action != b.Action:
		return int(a.Action) - int(b.Action)
	case a.Difficulty != b.Difficulty:
		return a.Difficulty - b.Difficulty
	case a.BlockFor < b.BlockFor:
		return -1
	case a.BlockFor > b.BlockFor:
		return 1
	}
	return 0
}

// MoreRestrictive returns whichever step demands more from the caller.
func MoreRestrictive(a, b Step) Step {
	if compareSteps(b, a) > 0 {
		return b
	}
	return a
}

// Ladder is an ordered threshold table mapping failure counts to actions.
type Ladder struct {
	steps []Step
}

func DefaultLadder() *Ladder {
	ladder, _ := NewLadder([]Step{
		{MinFailures: 0, Action: ActionNone},
		{MinFailures: 3, Action: ActionArithmetic},
		{MinFailures: 5, Action: ActionProofOfWork, Difficulty: 2},
		{MinFailures: 10, Action: ActionProofOfWork, Difficulty: 3},
		{MinFailures: 15, Action: ActionProofOfWork, Difficulty: 4},
		{MinFailures: 20, Action: ActionTimedBlock, BlockFor: 300 * time.Second},
		{MinFailures: 30, Action: ActionTimedBlock, BlockFor: time.Hour},
		{MinFailures: 50, Action: ActionPermanentBlock},
	})
	return ladder
}

func NewLadder(steps []Step) (*Ladder, error) {
	if len(steps) == 0 {
		return nil, errors.New("ladder must have at least one step")
	}

	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinFailures < sorted[j].MinFailures
	})

	if sorted[0].MinFailures != 0 {
		return nil, errors.New("ladder must start at zero failures")
	}

	for i, step := range sorted {
		switch step.Action {
		case ActionProofOfWork:
			if step.Difficulty < 1 || step.Difficulty > maxProofOfWorkDifficulty {
				return nil, fmt.Errorf("step %d: proof of work difficulty must be in [1, %d]", i, maxProofOfWorkDifficulty)
			}
		case ActionTimedBlock:
			if step.BlockFor <= 0 {
				return nil, fmt.Errorf("step %d: timed block needs a positive duration", i)
			}
		}

		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if step.MinFailures == prev.MinFailures {
			return nil, fmt.Errorf("duplicate threshold %d", step.MinFailures)
		}
		if compareSteps(step, prev) < 0 {
			return nil, fmt.Errorf("step at %d failures (%s) is less restrictive than the step before it", step.MinFailures, step.Action)
		}
	}

	return &Ladder{steps: sorted}, nil
}

type ladderStepJSON struct {
	MinFailures  int64  `json:"min_failures"`
	Action       string `json:"action"`
	Difficulty   int    `json:"difficulty,omitempty"`
	BlockSeconds int64  `json:"block_seconds,omitempty"`
}

// ParseLadder reads a JSON array such as
// [{"min_failures":0,"action":"none"},{"min_failures":3,"action":"arithmetic_challenge"}].
func ParseLadder(raw string) (*Ladder, error) {
	var rows []ladderStepJSON
	if err := shared.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("invalid ladder json: %w", err)
	}

	steps := make([]Step, 0, len(rows))
	for _, row := range rows {
		action, err := ParseAction(row.Action)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{
			MinFailures: row.MinFailures,
			Action:      action,
			Difficulty:  row.Difficulty,
			BlockFor:    time.Duration(row.BlockSeconds) * time.Second,
		})
	}
	return NewLadder(steps)
}

func (l *Ladder) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Escalate returns the step with the highest threshold that failures meets.
func (l *Ladder) Escalate(failures int64) Step {
	if failures < 0 {
		failures = 0
	}
	idx := sort.Search(len(l.steps), func(i int) bool {
		return l.steps[i].MinFailures > failures
	})
	return l.steps[idx-1]
}

// StrongestChallenge is the most demanding step that still offers a puzzle.
func (l *Ladder) StrongestChallenge() Step {
	for i := len(l.steps) - 1; i >= 0; i-- {
		if l.steps[i].Action.IsChallenge() {
			return l.steps[i]
		}
	}
	return Step{Action: ActionArithmetic}
}

// ChallengeFor maps a count onto the ladder but never returns a block.
// Counts that would land on a block get the strongest challenge instead.
func (l *Ladder) ChallengeFor(failures int64) Step {
	step := l.Escalate(failures)
	if step.Action.IsBlock() {
		return l.StrongestChallenge()
	}
	return step
}
