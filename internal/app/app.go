package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/watchparty/internal/controller"
	"github.com/sharetube/watchparty/internal/domain"
	conninmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	"github.com/sharetube/watchparty/internal/repository/metadata/inmemory"
	metadataredis "github.com/sharetube/watchparty/internal/repository/metadata/redis"
	"github.com/sharetube/watchparty/internal/repository/metadata/storageapi"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/cron"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/randstr"
	"github.com/sharetube/watchparty/pkg/redisclient"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 30 * time.Second
	minRoomIdLength = 8
	roomIdLetters   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	emptyRoomJobName = "empty_room_reaper"
	idleSweepJobName = "idle_participant_reaper"
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	MetadataURL       string        `json:"metadata_url"`
	MetadataTimeout   time.Duration `json:"metadata_timeout"`
	CatalogFile       string        `json:"catalog_file"`
	MetadataCacheTTL  time.Duration `json:"metadata_cache_ttl"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	EmptyRoomInterval time.Duration `json:"empty_room_interval"`
	IdleSweepInterval time.Duration `json:"idle_sweep_interval"`
	IdleThreshold     time.Duration `json:"idle_threshold"`
	RoomIdLength      int           `json:"room_id_length"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.MetadataTimeout <= 0 {
		return fmt.Errorf("metadata timeout must be greater than 0")
	}
	if cfg.MetadataCacheTTL < 0 {
		return fmt.Errorf("metadata cache ttl must not be negative")
	}
	if cfg.EmptyRoomInterval <= 0 {
		return fmt.Errorf("empty room interval must be greater than 0")
	}
	if cfg.IdleSweepInterval <= 0 {
		return fmt.Errorf("idle sweep interval must be greater than 0")
	}
	if cfg.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be greater than 0")
	}
	if cfg.RoomIdLength < minRoomIdLength {
		return fmt.Errorf("room id length must be at least %d", minRoomIdLength)
	}
	return nil
}

type metadataProvider interface {
	GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error)
	GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error)
	GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error)
	GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error)
	GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error)
}

type housekeeper interface {
	ReapEmptyRooms(ctx context.Context) []string
	ReapIdleParticipants(ctx context.Context) map[string][]string
}

type notifier interface {
	NotifyRoomsDeleted(ctx context.Context, roomIds []string)
	NotifyParticipantsEvicted(ctx context.Context, evicted map[string][]string)
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(h), nil
}

// newMetadataProvider builds the provider chain: the storage API when a url
// is configured, otherwise the in-memory catalog, behind the redis cache when
// a ttl is set. The returned func releases what was opened.
func newMetadataProvider(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (metadataProvider, func(), error) {
	var provider metadataProvider
	if cfg.MetadataURL != "" {
		provider = storageapi.NewRepo(cfg.MetadataURL, &http.Client{Timeout: cfg.MetadataTimeout}, logger)
		logger.InfoContext(ctx, "using storage api metadata", "url", cfg.MetadataURL)
	} else {
		repo := inmemory.NewRepo()
		if cfg.CatalogFile != "" {
			catalog, err := inmemory.LoadCatalogFile(cfg.CatalogFile)
			if err != nil {
				return nil, nil, err
			}
			repo.Load(catalog)
		}
		provider = repo
		logger.InfoContext(ctx, "using in-memory metadata", "catalog_file", cfg.CatalogFile)
	}

	if cfg.MetadataCacheTTL == 0 {
		return provider, func() {}, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return metadataredis.NewRepo(rc, provider, cfg.MetadataCacheTTL, logger), func() { rc.Close() }, nil
}

func registerJobs(scheduler *cron.Scheduler, cfg *AppConfig, rooms housekeeper, n notifier) error {
	if err := scheduler.Register(cron.Job{
		Name:        emptyRoomJobName,
		Description: "deletes rooms without participants",
		Interval:    cfg.EmptyRoomInterval,
		Fn: func(ctx context.Context) error {
			if reaped := rooms.ReapEmptyRooms(ctx); len(reaped) > 0 {
				n.NotifyRoomsDeleted(ctx, reaped)
			}
			return nil
		},
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", emptyRoomJobName, err)
	}

	if err := scheduler.Register(cron.Job{
		Name:        idleSweepJobName,
		Description: "removes participants that stopped reporting",
		Interval:    cfg.IdleSweepInterval,
		Fn: func(ctx context.Context) error {
			if evicted := rooms.ReapIdleParticipants(ctx); len(evicted) > 0 {
				n.NotifyParticipantsEvicted(ctx, evicted)
			}
			return nil
		},
	}); err != nil {
		return fmt.Errorf("failed to register %s: %w", idleSweepJobName, err)
	}

	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	metadata, closeMetadata, err := newMetadataProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create metadata provider: %w", err)
	}
	defer closeMetadata()

	roomService := room.NewService(metadata, randstr.New([]byte(roomIdLetters)), logger, &room.Config{
		RoomIdLength:    cfg.RoomIdLength,
		MetadataTimeout: cfg.MetadataTimeout,
		IdleThreshold:   cfg.IdleThreshold,
	})
	connectionRepo := conninmemory.NewRepo()
	scheduler := cron.New(logger)
	controller := controller.NewController(roomService, connectionRepo, scheduler, logger)

	if err := registerJobs(scheduler, cfg, roomService, controller); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           controller.GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	scheduler.Start(gCtx)

	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.InfoContext(shutdownCtx, "shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	err = g.Wait()
	scheduler.Wait()

	return err
}
