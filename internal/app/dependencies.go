package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/config"
	"github.com/voxcal/voxcal/internal/database"
	"github.com/voxcal/voxcal/internal/event_bus"
	"github.com/voxcal/voxcal/internal/utils"
	"github.com/voxcal/voxcal/pkg/assistant"
	"github.com/voxcal/voxcal/pkg/google"
	"github.com/voxcal/voxcal/pkg/scheduling"
	"github.com/voxcal/voxcal/pkg/session"
	"github.com/voxcal/voxcal/pkg/transcript"
)

const janitorInterval = 10 * time.Minute

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock utils.Clock
	Bus   *event_bus.EventBus

	SessionRepo    session.Repository
	SessionService session.Service

	Extractor *transcript.Extractor
	Responder assistant.Responder

	GoogleAuth  *google.Auth
	Calendar    google.Client
	AuthHandler *google.AuthHandler

	CreationGuard     *scheduling.CreationGuard
	SchedulingService *scheduling.Service
	SchedulingHandler *scheduling.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.Bus = event_bus.NewEventBus()

	repo, err := buildSessionRepo(ctx, cfg, deps.Clock)
	if err != nil {
		return nil, err
	}
	deps.SessionRepo = repo
	deps.SessionService = session.NewService(repo, cfg.Session.DefaultTimezone, deps.Clock)

	deps.Extractor = transcript.NewExtractor(deps.Clock)
	deps.Responder, err = buildResponder(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}

	deps.GoogleAuth = google.NewAuth(cfg.Google)
	deps.Calendar = google.NewCalendarClient(deps.GoogleAuth, cfg.Google)
	deps.AuthHandler = google.NewAuthHandler(deps.GoogleAuth, deps.SessionService)

	deps.CreationGuard = scheduling.NewCreationGuard()
	deps.SchedulingService = scheduling.NewService(
		deps.SessionService,
		deps.Extractor,
		deps.Responder,
		deps.Calendar,
		deps.CreationGuard,
		deps.Bus,
	)
	deps.SchedulingHandler = scheduling.NewHandler(deps.SchedulingService, deps.SessionService)

	return deps, nil
}

func buildSessionRepo(ctx context.Context, cfg config.Application, clock utils.Clock) (session.Repository, error) {
	switch cfg.Session.Storage {
	case "postgres":
		pool, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			return nil, err
		}
		log.Info("Using postgres session storage")
		return session.NewPostgresRepository(pool, cfg.Session.TTL), nil
	default:
		log.Info("Using in-memory session storage")
		repo := session.NewMemoryRepository(cfg.Session.TTL, clock)
		repo.StartJanitor(ctx, janitorInterval)
		return repo, nil
	}
}

func buildResponder(ctx context.Context, cfg config.Gemini) (assistant.Responder, error) {
	if cfg.ApiKey == "" {
		log.Warn("No Gemini API key configured, using static assistant replies")
		return &assistant.StaticResponder{
			Message: "Got it. Could you share the remaining meeting details?",
		}, nil
	}
	return assistant.NewGeminiResponder(ctx, cfg)
}
