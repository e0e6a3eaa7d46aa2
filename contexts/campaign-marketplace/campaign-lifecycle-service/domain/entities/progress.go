package entities

import "time"

type StageName string

const (
	StageCreation    StageName = "creation"
	StageInvitations StageName = "invitations"
	StageContent     StageName = "content"
	StageCompletion  StageName = "completion"
)

type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
)

func (s StageStatus) Valid() bool {
	return s.rank() > 0
}

func (s StageStatus) rank() int {
	switch s {
	case StageStatusPending:
		return 1
	case StageStatusActive:
		return 2
	case StageStatusCompleted:
		return 3
	default:
		return 0
	}
}

type Stage struct {
	Status      StageStatus `json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Advance moves the stage forward to the target status. Backward or
// same-status moves are ignored and reported as unchanged.
func (s *Stage) Advance(to StageStatus, at time.Time) bool {
	if !to.Valid() || to.rank() <= s.Status.rank() {
		return false
	}
	s.Status = to
	if to == StageStatusCompleted {
		completedAt := at.UTC()
		s.CompletedAt = &completedAt
	}
	return true
}

func (s Stage) IsCompleted() bool {
	return s.Status == StageStatusCompleted
}

type Progress struct {
	Creation    Stage `json:"creation"`
	Invitations Stage `json:"invitations"`
	Content     Stage `json:"content"`
	Completion  Stage `json:"completion"`
}

func NewProgress(createdAt time.Time) Progress {
	completedAt := createdAt.UTC()
	return Progress{
		Creation:    Stage{Status: StageStatusCompleted, CompletedAt: &completedAt},
		Invitations: Stage{Status: StageStatusPending},
		Content:     Stage{Status: StageStatusPending},
		Completion:  Stage{Status: StageStatusPending},
	}
}

// IsComplete reports whether every stage carries a known status.
func (p Progress) IsComplete() bool {
	return p.Creation.Status.Valid() &&
		p.Invitations.Status.Valid() &&
		p.Content.Status.Valid() &&
		p.Completion.Status.Valid()
}

func (p Progress) Stage(name StageName) Stage {
	switch name {
	case StageCreation:
		return p.Creation
	case StageInvitations:
		return p.Invitations
	case StageContent:
		return p.Content
	case StageCompletion:
		return p.Completion
	default:
		return Stage{}
	}
}

// NotBehind reports whether every stage of p is at least as far along as the
// matching stage of previous.
func (p Progress) NotBehind(previous Progress) bool {
	for _, name := range []StageName{StageCreation, StageInvitations, StageContent, StageCompletion} {
		if p.Stage(name).Status.rank() < previous.Stage(name).Status.rank() {
			return false
		}
	}
	return true
}

func (p Progress) clone() Progress {
	out := p
	out.Creation.CompletedAt = cloneTime(p.Creation.CompletedAt)
	out.Invitations.CompletedAt = cloneTime(p.Invitations.CompletedAt)
	out.Content.CompletedAt = cloneTime(p.Content.CompletedAt)
	out.Completion.CompletedAt = cloneTime(p.Completion.CompletedAt)
	return out
}
