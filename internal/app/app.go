// Package app wires the repositories, services, sweeper and console
// controller together and manages their shared lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"shortlink/internal/cli"
	"shortlink/internal/config"
	"shortlink/internal/entity"
	"shortlink/internal/repository"
	"shortlink/internal/service"
	"shortlink/internal/shortcode"
	"shortlink/internal/storage"
	"shortlink/internal/sweeper"
)

// Run builds the application from the config, restores the persisted
// snapshot, runs the console loop and the sweeper until either stops, and
// saves the snapshot on the way out.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	const op = "app.Run"

	for _, key := range cfg.Defaulted() {
		logger.Warn().Str("key", key).Msg("config value missing or invalid, default applied")
	}

	store := storage.NewFileStorage(cfg.StoragePath)
	state, err := store.Load()
	if err != nil {
		return fmt.Errorf("%s: failed to restore state: %w", op, err)
	}

	linkRepo := repository.NewLinkRepository()
	linkRepo.Restore(state.Links)
	ownerRepo := repository.NewOwnerRepository()
	ownerRepo.Restore(state.Owners)
	notifRepo := repository.NewNotificationRepository()
	notifRepo.Restore(state.Notifications)

	clock := entity.RealClock{}
	gen := shortcode.NewGenerator(cfg.CodeAlphabet, cfg.CodeLength, linkRepo)

	linkSvc := service.NewLinkService(linkRepo, gen, cfg, clock)
	ownerSvc := service.NewOwnerService(ownerRepo, cfg)
	notifSvc := service.NewNotificationService(notifRepo)

	controller := cli.NewController(linkSvc, ownerSvc, notifSvc, cfg, os.Stdin, os.Stdout, logger)
	sw := sweeper.New(linkSvc, ownerSvc, notifSvc, controller, cfg.SweepInterval.Std(), clock, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// When the console loop ends (exit command or closed input), stop
		// the sweeper as well.
		defer cancel()

		if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: console loop failed: %w", op, err)
		}
		return nil
	})

	g.Go(func() error {
		if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: sweeper failed: %w", op, err)
		}
		return nil
	})

	runErr := g.Wait()

	if err := store.Save(&storage.State{
		Links:         linkRepo.Snapshot(),
		Owners:        ownerRepo.Snapshot(),
		Notifications: notifRepo.Snapshot(),
	}); err != nil {
		logger.Error().Err(err).Msg("failed to save state on shutdown")
		if runErr == nil {
			runErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	return runErr
}
