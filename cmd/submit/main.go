// Command submit walks listing files through the submission wizard against a
// Property API: step checks, draft saves, then publish.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"property_submission/internal/adapters/observability"
	"property_submission/internal/adapters/propertyapi"
	redisad "property_submission/internal/adapters/redis"
	"property_submission/internal/app"
	"property_submission/internal/domain"
	"property_submission/internal/shared"
	"property_submission/internal/validation"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file")
	resume := flag.Bool("resume", false, "continue the owner's cached draft (single file only)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load(*envFile)

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel, "listing-submit")
	observability.Register()
	observability.Serve(cfg.MetricsAddr)

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: submit [-env file] [-resume] listing.json...")
		os.Exit(2)
	}
	if cfg.SubmitOwner == "" {
		log.Fatal().Msg("SUBMIT_OWNER is required")
	}
	if *resume && len(files) > 1 {
		log.Fatal().Msg("-resume works with a single file")
	}

	client, err := propertyapi.New(cfg.APIBase, cfg.SubmitOwner, cfg.SubmitRole, propertyapi.Options{Token: cfg.APIToken, RPS: cfg.APIRPS})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Property API client")
	}

	// the draft id cache is per owner, so only a single submission may use it
	var store domain.IdentityStore
	if cfg.RedisAddr != "" && len(files) == 1 {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; draft id will not be cached")
		} else {
			store = redisad.NewIdentityStore(rc.Client(), cfg.DraftIDTTL)
		}
	}

	log.Info().
		Str("api", cfg.APIBase).
		Str("owner", cfg.SubmitOwner).
		Str("role", string(cfg.SubmitRole)).
		Int("files", len(files)).
		Int("workers", cfg.Workers).
		Msg("submit starting")

	v := validation.Default()
	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, file := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("interrupted")
			break
		}
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			defer sem.Release(1)

			rec := app.NewReconciler(client, store, cfg.SubmitOwner, cfg.SubmitRole)
			out, err := submit(ctx, v, rec, file, cfg, *resume)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("file", file).Err(err).Msg("submission failed")
				return
			}
			log.Info().
				Str("file", file).
				Str("identity", out.Identity.String()).
				Str("status", out.Status).
				Bool("pending_review", out.PendingReview).
				Msg("submission ok")
		}(file)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failed", n).Msg("submission completed with failures")
		os.Exit(1)
	}
	log.Info().Msg("submission completed")
}

func submit(ctx context.Context, v *validation.Validator, rec *app.Reconciler, file string, cfg shared.Config, resume bool) (app.Outcome, error) {
	c, err := loadCandidate(file)
	if err != nil {
		return app.Outcome{}, err
	}
	w := app.NewWizard(v, rec, app.WizardConfig{
		Idle: cfg.AutosaveIdle,
		OnNotice: func(n app.Notice) {
			log.Info().Str("file", file).Str("level", n.Level).Msg(n.Message)
		},
	})
	defer w.Close()

	if resume {
		if ok, err := w.Resume(ctx); err != nil {
			return app.Outcome{}, err
		} else if ok {
			log.Info().Str("identity", w.Identity().String()).Msg("resuming cached draft")
		}
	}
	if err := w.Hydrate(c); err != nil {
		return app.Outcome{}, err
	}

	for w.Step() < app.LastStep {
		step := w.Step()
		if errs, err := w.Next(); err != nil {
			return app.Outcome{}, fmt.Errorf("%w: %v", err, errs)
		}
		// save a draft per completed step, the way an idle user would trigger one
		w.SaveNow()
		w.Flush()
		log.Debug().Str("file", file).Stringer("step", step).Msg("step complete")
	}
	out, err := w.Publish(ctx)
	// the identity is unchanged after a failed publish, so retrying cannot duplicate
	for attempt := 1; err != nil && propertyapi.IsRetryable(err) && attempt <= 2; attempt++ {
		log.Warn().Str("file", file).Int("attempt", attempt).Err(err).Msg("publish failed, retrying")
		out, err = w.Publish(ctx)
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return out, fmt.Errorf("server rejected %s: %v", file, ve.Fields)
	}
	return out, err
}

func loadCandidate(file string) (*domain.Candidate, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	c := domain.NewCandidate()
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return c, nil
}
