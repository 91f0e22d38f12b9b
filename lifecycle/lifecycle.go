// Package lifecycle computes where a review request sits in the
// posted → quoted → paid → in review → completed progression and who has to act
// next. Everything here is a pure function of its input.
package lifecycle

import "code-review-market/models"

const (
	StagePosted = iota
	StageQuoted
	StagePaid
	StageInReview
	StageCompleted
)

var stageNames = [...]string{"Posted", "Quoted", "Paid", "In review", "Completed"}

type Tone string

const (
	ToneWaiting   Tone = "waiting"
	ToneActive    Tone = "active"
	ToneComplete  Tone = "complete"
	ToneAttention Tone = "attention"
)

type Actor string

const (
	ActorBuilder  Actor = "builder"
	ActorReviewer Actor = "reviewer"
	ActorNone     Actor = "none"
)

// Flags are the facts derived from a request's quotes and review.
type Flags struct {
	HasQuotes          bool
	HasPaidQuote       bool
	HasCompletedReview bool
}

type Input struct {
	Status     models.RequestStatus
	Flags      Flags
	ViewerRole models.UserRole
}

type Progress struct {
	StageIndex int    `json:"stage_index"`
	Stage      string `json:"stage"`
	Tone       Tone   `json:"tone"`
	NextActor  Actor  `json:"next_actor"`
	NextAction string `json:"next_action"`
}

// Stages returns the display names of the five stages in order.
func Stages() []string {
	out := make([]string, len(stageNames))
	copy(out, stageNames[:])
	return out
}

// Index returns the stage index in [0,4]. The first matching rule wins.
func Index(status models.RequestStatus, f Flags) int {
	switch {
	case status == models.RequestStatusCompleted || f.HasCompletedReview:
		return StageCompleted
	case status == models.RequestStatusInProgress:
		return StageInReview
	case f.HasPaidQuote:
		return StagePaid
	case f.HasQuotes:
		return StageQuoted
	default:
		return StagePosted
	}
}

func toneFor(stage int) Tone {
	switch stage {
	case StagePosted, StageQuoted:
		return ToneWaiting
	case StagePaid, StageInReview:
		return ToneActive
	default:
		return ToneComplete
	}
}

// Compute maps a request's status, flags and the viewer's role to the progress
// shown to that viewer. A cancelled request overrides every flag.
func Compute(in Input) Progress {
	stage := Index(in.Status, in.Flags)
	p := Progress{
		StageIndex: stage,
		Stage:      stageNames[stage],
	}

	if in.Status == models.RequestStatusCancelled {
		p.Tone = ToneAttention
		p.NextActor = ActorNone
		if in.ViewerRole == models.RoleBuilder {
			p.NextAction = "This request was cancelled. Post a new request to get fresh quotes."
		} else {
			p.NextAction = "This request was cancelled. The builder needs to repost it before work can continue."
		}
		return p
	}

	p.Tone = toneFor(stage)
	p.NextActor, p.NextAction = nextStep(stage, in.ViewerRole)
	return p
}

func nextStep(stage int, viewer models.UserRole) (Actor, string) {
	builder := viewer == models.RoleBuilder
	switch stage {
	case StagePosted:
		if builder {
			return ActorReviewer, "Waiting for a reviewer to submit a quote."
		}
		return ActorReviewer, "Submit a quote for this request."
	case StageQuoted:
		if builder {
			return ActorBuilder, "Compare the quotes, accept one and complete payment."
		}
		return ActorBuilder, "Waiting for the builder to accept a quote and pay."
	case StagePaid:
		if builder {
			return ActorReviewer, "Payment received. Waiting for the reviewer to start."
		}
		return ActorReviewer, "Payment received. Start the review."
	case StageInReview:
		if builder {
			return ActorReviewer, "The reviewer is working on your report."
		}
		return ActorReviewer, "Finish the report and submit your review."
	default:
		if builder {
			return ActorBuilder, "Your review is ready. Read the report and rate the reviewer."
		}
		return ActorNone, "Review delivered. Nothing left to do."
	}
}
