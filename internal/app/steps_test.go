package app_test

import (
	"testing"

	"property_submission/internal/app"
	"property_submission/internal/domain"
	"property_submission/internal/validation"
)

func TestStepOf(t *testing.T) {
	cases := map[string]app.Step{
		"title":                   app.StepBasics,
		"price.period":            app.StepBasics,
		"details.floor":           app.StepLocation,
		domain.GlobalKey:          app.StepLocation,
		"images[3].url":           app.StepMedia,
		"virtualTour.url":         app.StepMedia,
		"publicContacts":          app.StepContacts,
		"publicContacts[1].value": app.StepContacts,
		"availableFrom":           app.StepReview,
		"unknown":                 0,
	}
	for path, want := range cases {
		if got := app.StepOf(path); got != want {
			t.Fatalf("%s: got %v, want %v", path, got, want)
		}
	}
}

func TestStepErrors_EmptyTitleBlocksStepOne(t *testing.T) {
	p := app.NewPartitioner(validation.Default())
	c := validCandidate()
	c.Title = ""

	errs := p.StepErrors(app.StepBasics, c)
	if errs["title"] == "" {
		t.Fatalf("expected title error, got %v", errs)
	}
	if p.IsStepValid(app.StepBasics, c) {
		t.Fatalf("step 1 reported valid")
	}
	if !p.IsStepValid(app.StepLocation, c) {
		t.Fatalf("title error leaked into step 2: %v", p.StepErrors(app.StepLocation, c))
	}
}

func TestStepErrors_CrossFieldBelongsToLocation(t *testing.T) {
	p := app.NewPartitioner(validation.Default())
	c := validCandidate()
	c.Details.Floor = "10"
	c.Details.TotalFloors = "5"

	if errs := p.StepErrors(app.StepLocation, c); errs[domain.GlobalKey] == "" {
		t.Fatalf("expected form-level error on step 2, got %v", errs)
	}
	if got := p.FirstInvalidStep(c); got != app.StepLocation {
		t.Fatalf("first invalid: %v", got)
	}
}

func TestStepErrors_ContactsStep(t *testing.T) {
	p := app.NewPartitioner(validation.Default())
	c := validCandidate()
	c.PublicContacts = nil
	errs := p.StepErrors(app.StepContacts, c)
	if len(errs) != 1 || errs["publicContacts"] == "" {
		t.Fatalf("got %v", errs)
	}

	c.PublicContacts = []domain.Contact{{Type: "email", Value: "bad"}}
	errs = p.StepErrors(app.StepContacts, c)
	if len(errs) != 1 || errs["publicContacts[0].value"] == "" {
		t.Fatalf("got %v", errs)
	}
}

func TestFirstInvalidStep_ValidRecord(t *testing.T) {
	p := app.NewPartitioner(validation.Default())
	if got := p.FirstInvalidStep(validCandidate()); got != 0 {
		t.Fatalf("got %v", got)
	}
	if got := p.FirstInvalidStep(domain.NewCandidate()); got != app.StepBasics {
		t.Fatalf("empty candidate: %v", got)
	}
}

func TestRequiredPathsForStep_IsACopy(t *testing.T) {
	paths := app.RequiredPathsForStep(app.StepContacts)
	paths[0] = "mutated"
	if app.RequiredPathsForStep(app.StepContacts)[0] != "publicContacts" {
		t.Fatalf("step map was mutated through the returned slice")
	}
}
