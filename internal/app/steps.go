package app

import (
	"fmt"

	"property_submission/internal/domain"
	"property_submission/internal/validation"
)

type Step int

const (
	StepBasics   Step = 1 // title, type, price
	StepLocation Step = 2 // address and building details
	StepMedia    Step = 3 // features, photos, tour
	StepContacts Step = 4
	StepReview   Step = 5 // costs, availability, publish

	FirstStep = StepBasics
	LastStep  = StepReview
)

var stepPaths = map[Step][]string{
	StepBasics:   {"title", "description", "propertyType", "transactionType", "price"},
	StepLocation: {"location", "details", domain.GlobalKey},
	StepMedia:    {"features", "images", "virtualTour"},
	StepContacts: {"publicContacts"},
	StepReview:   {"additionalCosts", "availableFrom"},
}

func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

func (s Step) String() string { return fmt.Sprintf("step%d", int(s)) }

// RequiredPathsForStep returns the base paths a step owns. Form-level errors
// (domain.GlobalKey) come from the building details rules, so step 2 owns them.
func RequiredPathsForStep(s Step) []string {
	return append([]string(nil), stepPaths[s]...)
}

// StepOf returns the step owning an error key, or 0 when none does.
func StepOf(path string) Step {
	for s := FirstStep; s <= LastStep; s++ {
		for _, base := range stepPaths[s] {
			if domain.WithinPath(path, base) {
				return s
			}
		}
	}
	return 0
}

// Partitioner derives step-level pass/fail from field-level errors.
type Partitioner struct {
	v *validation.Validator
}

func NewPartitioner(v *validation.Validator) *Partitioner { return &Partitioner{v: v} }

// StepErrors filters a full error map down to what counts against step s.
// The contacts step reports an empty list as its own entry on
// "publicContacts" and per-entry problems on their indexed paths.
func StepErrors(s Step, all domain.ErrorMap) domain.ErrorMap {
	return all.Under(stepPaths[s]...)
}

func (p *Partitioner) StepErrors(s Step, c *domain.Candidate) domain.ErrorMap {
	return StepErrors(s, p.v.ValidateAll(c))
}

func (p *Partitioner) IsStepValid(s Step, c *domain.Candidate) bool {
	return len(p.StepErrors(s, c)) == 0
}

// FirstInvalidStep returns the earliest step with errors, or 0 when the
// whole record validates.
func (p *Partitioner) FirstInvalidStep(c *domain.Candidate) Step {
	all := p.v.ValidateAll(c)
	for s := FirstStep; s <= LastStep; s++ {
		if len(StepErrors(s, all)) > 0 {
			return s
		}
	}
	if len(all) > 0 {
		return LastStep
	}
	return 0
}
