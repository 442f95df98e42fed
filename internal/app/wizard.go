package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"property_submission/internal/domain"
	"property_submission/internal/payload"
	"property_submission/internal/validation"
)

// Notice is a non-blocking message for the user (save failures, review state).
type Notice struct {
	Level   string // info|warn|error
	Message string
	At      time.Time
}

type WizardConfig struct {
	Idle     time.Duration
	After    AfterFunc
	OnNotice func(Notice)
}

// Wizard is one submission session: form state, navigation, visible errors,
// autosave and the reconciler behind it.
type Wizard struct {
	v     *validation.Validator
	rec   *Reconciler
	auto  *Autosave
	onMsg func(Notice)

	mu       sync.Mutex
	c        *domain.Candidate
	step     Step
	revealed map[string]bool
	server   domain.ErrorMap
	finished bool
	last     Notice
}

func NewWizard(v *validation.Validator, rec *Reconciler, cfg WizardConfig) *Wizard {
	if cfg.Idle <= 0 {
		cfg.Idle = 3 * time.Second
	}
	w := &Wizard{
		v:        v,
		rec:      rec,
		onMsg:    cfg.OnNotice,
		c:        domain.NewCandidate(),
		step:     FirstStep,
		revealed: map[string]bool{},
		server:   domain.ErrorMap{},
	}
	w.auto = NewAutosave(cfg.Idle, cfg.After, w.eligible, w.autosave)
	return w
}

// Resume hydrates the wizard from the owner's cached draft, if one exists.
func (w *Wizard) Resume(ctx context.Context) (bool, error) {
	c, ok, err := w.rec.Resume(ctx)
	if err != nil || !ok {
		return false, err
	}
	w.load(c)
	return true, nil
}

// OpenForEdit hydrates the wizard from an existing record.
func (w *Wizard) OpenForEdit(ctx context.Context, id string) error {
	c, err := w.rec.OpenForEdit(ctx, id)
	if err != nil {
		return err
	}
	w.load(c)
	return nil
}

func (w *Wizard) load(c *domain.Candidate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c = c
	w.step = FirstStep
	w.revealed = map[string]bool{}
	w.server = domain.ErrorMap{}
}

// Hydrate replaces the form content wholesale (an imported or pasted
// listing) and schedules a save. Identity and step are kept.
func (w *Wizard) Hydrate(c *domain.Candidate) error {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return domain.ErrFinished
	}
	w.c = c.Clone()
	w.c.NormalizeImages()
	w.mu.Unlock()

	w.auto.Touch()
	return nil
}

func (w *Wizard) Identity() domain.Identity { return w.rec.Identity() }

func (w *Wizard) Candidate() *domain.Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.Clone()
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Set writes one field and returns its live errors.
func (w *Wizard) Set(path, value string) (domain.ErrorMap, error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return nil, domain.ErrFinished
	}
	if err := w.c.Assign(path, value); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.revealed[path] = true
	w.server.Forget(path)
	fe := w.v.ValidateField(w.c, path, value)
	w.mu.Unlock()

	w.auto.Touch()
	return fe, nil
}

// Mutate applies a structural change (images, contacts, tour type) and
// reveals errors under the touched base path.
func (w *Wizard) Mutate(base string, fn func(c *domain.Candidate) error) error {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return domain.ErrFinished
	}
	if err := fn(w.c); err != nil {
		w.mu.Unlock()
		return err
	}
	w.revealed[base] = true
	w.server.Forget(base)
	w.mu.Unlock()

	w.auto.Touch()
	return nil
}

// Next advances when the current step validates; otherwise it reveals and
// returns the step's errors.
func (w *Wizard) Next() (domain.ErrorMap, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	errs := StepErrors(w.step, w.v.ValidateAll(w.c))
	if len(errs) > 0 {
		for _, base := range RequiredPathsForStep(w.step) {
			w.revealed[base] = true
		}
		return errs, fmt.Errorf("%s: %w", w.step, domain.ErrStepInvalid)
	}
	if w.step < LastStep {
		w.step++
	}
	return domain.ErrorMap{}, nil
}

// Prev always moves back one step.
func (w *Wizard) Prev() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > FirstStep {
		w.step--
	}
	return w.step
}

// Errors returns what the user should see: local errors for revealed paths,
// recomputed from current state so fixed fields never show stale messages,
// overlaid with server errors not yet superseded by an edit.
func (w *Wizard) Errors() domain.ErrorMap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visibleLocked()
}

func (w *Wizard) visibleLocked() domain.ErrorMap {
	out := domain.ErrorMap{}
	for k, msg := range w.v.ValidateAll(w.c) {
		if w.revealedLocked(k) {
			out[k] = msg
		}
	}
	return out.Merge(w.server)
}

func (w *Wizard) revealedLocked(key string) bool {
	for base := range w.revealed {
		if domain.WithinPath(key, base) {
			return true
		}
		if key == domain.GlobalKey && strings.HasPrefix(base, "details") {
			return true
		}
	}
	return false
}

// SaveNow asks for an immediate draft save.
func (w *Wizard) SaveNow() { w.auto.SaveNow() }

// Flush waits for any in-flight save to settle.
func (w *Wizard) Flush() { w.auto.Wait() }

// Publish validates the whole record and hands it to the reconciler. On
// failure the wizard stays on the last step with the server's field errors
// merged in and the identity unchanged, so a retry targets the same record.
func (w *Wizard) Publish(ctx context.Context) (Outcome, error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return Outcome{}, domain.ErrFinished
	}
	if w.step != LastStep {
		w.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: publish is only offered on the last step", domain.ErrNotPublishable)
	}
	if all := w.v.ValidateAll(w.c); len(all) > 0 {
		for k := range all {
			w.revealed[k] = true
		}
		w.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %d field errors", domain.ErrNotPublishable, len(all))
	}
	snapshot := w.c.Clone()
	w.mu.Unlock()

	w.auto.Stop()
	w.auto.Wait()

	out, err := w.rec.Publish(ctx, snapshot)
	if err != nil {
		w.mu.Lock()
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			w.server = w.server.Merge(ve.Fields)
		}
		w.mu.Unlock()
		w.auto.Start()
		w.notify("error", publishFailureMessage(err))
		return out, err
	}

	w.mu.Lock()
	w.finished = true
	w.server = domain.ErrorMap{}
	w.c = payload.ToCandidate(out.Record.Payload)
	w.mu.Unlock()

	if out.PendingReview {
		w.notify("info", out.Notice)
	} else {
		w.notify("info", "Listing published")
	}
	return out, nil
}

// Close ends the session. A save in flight still completes.
func (w *Wizard) Close() { w.auto.Stop() }

func (w *Wizard) LastNotice() Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Wizard) eligible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.finished && w.c.HasContent()
}

func (w *Wizard) autosave(ctx context.Context) error {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return nil
	}
	snapshot := w.c.Clone()
	w.mu.Unlock()

	_, err := w.rec.SaveDraft(ctx, snapshot)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			w.mu.Lock()
			w.server = w.server.Merge(ve.Fields)
			w.mu.Unlock()
		}
		w.notify("warn", "Draft not saved, will retry")
		return err
	}
	return nil
}

func (w *Wizard) notify(level, msg string) {
	n := Notice{Level: level, Message: msg, At: time.Now()}
	w.mu.Lock()
	w.last = n
	w.mu.Unlock()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log.WithLevel(lvl).Str("notice", "wizard").Msg(msg)
	if w.onMsg != nil {
		w.onMsg(n)
	}
}

func publishFailureMessage(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return "Some fields need attention before publishing"
	case errors.Is(err, domain.ErrTransport):
		return "Could not reach the server, nothing was lost. Try again"
	case errors.Is(err, domain.ErrForbidden):
		return "You are not allowed to publish this listing"
	}
	return "Publishing failed, your changes are kept"
}
