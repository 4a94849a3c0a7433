package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/agent"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/config"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/plot"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/terminal"
)

type Mode int

const (
	ModePlay Mode = iota
	ModeTrain
	ModePlot
)

func (that Mode) String() string {
	switch that {
	case ModeTrain:
		return "train"
	case ModePlot:
		return "plot"
	default:
		return "play"
	}
}

// Options are the command line switches of a run.
type Options struct {
	ConfigPath      string
	Load            bool
	TeacherEpisodes int
	Teach           bool
	Plot            bool
	Learn           bool
	Force           bool
}

// ResolveMode picks the run mode, refusing combinations that cannot run together.
func ResolveMode(opts Options) (Mode, error) {
	switch {
	case opts.Plot && !opts.Load:
		return 0, fmt.Errorf("%w: must load an agent to plot reward", apperror.ErrConfigConflict)
	case opts.Plot && opts.Teach:
		return 0, fmt.Errorf("%w: cannot plot and teach concurrently, choose one or the other", apperror.ErrConfigConflict)
	case opts.Plot && opts.Learn:
		return 0, fmt.Errorf("%w: cannot plot and learn concurrently", apperror.ErrConfigConflict)
	case opts.Teach && opts.Learn:
		return 0, fmt.Errorf("%w: learn only applies to play against a human", apperror.ErrConfigConflict)
	case opts.Teach && opts.TeacherEpisodes <= 0:
		return 0, fmt.Errorf("%w: %d", usecase.ErrInvalidEpisodes, opts.TeacherEpisodes)
	case opts.Plot:
		return ModePlot, nil
	case opts.Teach:
		return ModeTrain, nil
	default:
		return ModePlay, nil
	}
}

// NewLogger builds the JSON logger used by every component.
func NewLogger(conf *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// RunApp - runs one session in the given mode.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config, opts Options, in io.Reader, out io.Writer) error {
	log := logger.With("component", "app")

	mode, err := ResolveMode(opts)
	if err != nil {
		return err
	}

	log.Debug("starting", "mode", mode, "storage", conf.Storage.Driver)

	agentRepo, closeRepo, err := openAgentRepository(ctx, conf)
	if err != nil {
		return fmt.Errorf("could not open agent storage: %w", err)
	}

	defer func() {
		if err = closeRepo(); err != nil {
			log.Error("could not close agent storage", "error", err)
		}
	}()

	term := terminal.New(in, out)

	if mode == ModePlot {
		return plotAgent(ctx, log, conf, agentRepo)
	}

	learner, err := loadOrCreateAgent(ctx, conf, opts, agentRepo, term)
	if err != nil {
		return err
	}

	if learner == nil {
		term.Printf("OK. Quitting.\n")
		return nil
	}

	manager, err := usecase.NewGameManager(logger, learner, agentRepo, usecase.Options{
		AgentMark: entity.Mark(conf.Agent.Mark),
		Rewards: usecase.RewardScheme{
			Win:  conf.Training.WinReward,
			Loss: conf.Training.LossReward,
			Draw: conf.Training.DrawReward,
		},
		ReportEvery: conf.Training.ReportEvery,
	})
	if err != nil {
		return fmt.Errorf("could not create game manager: %w", err)
	}

	if mode == ModeTrain {
		return teach(ctx, log, conf, opts, manager, learner)
	}

	return play(ctx, log, opts, manager, term)
}

func teach(ctx context.Context, log *slog.Logger, conf *config.Config, opts Options, manager *usecase.GameManager, learner *agent.QLearner) error {
	teacher := service.NewTeacherService()

	score, err := manager.Teach(ctx, teacher, opts.TeacherEpisodes)
	if err != nil {
		return fmt.Errorf("teaching failed: %w", err)
	}

	log.Info("teaching finished", "agent", learner.Name(), "episodes", score.Total(), "wins", score.Wins, "draws", score.Draws,
		"losses", score.Losses, "states", learner.States())

	if err = manager.SaveAgent(ctx); err != nil {
		return err
	}

	if conf.Training.EvaluateGames > 0 {
		evaluation, err := manager.Evaluate(ctx, teacher, conf.Training.EvaluateGames)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}

		log.Info("evaluation against teacher", "wins", evaluation.Wins, "draws", evaluation.Draws, "losses", evaluation.Losses)
	}

	if err = plot.SaveCumulativeReward(conf.Plot.Path, learner.Rewards(), conf.Plot.Width, conf.Plot.Height); err != nil {
		return fmt.Errorf("could not plot rewards: %w", err)
	}

	log.Info("reward plot saved", "path", conf.Plot.Path)

	return nil
}

func play(ctx context.Context, log *slog.Logger, opts Options, manager *usecase.GameManager, term *terminal.Terminal) error {
	agentMark := manager.AgentMark()
	term.Printf("Welcome to Tic-Tac-Toe. You are '%s' and the computer is '%s'.\n", agentMark.Opponent(), agentMark)

	games, err := manager.Play(ctx, term, opts.Learn)
	if err != nil && !errors.Is(err, terminal.ErrInputClosed) {
		return fmt.Errorf("play failed: %w", err)
	}

	log.Info("session finished", "games", games)

	if opts.Learn {
		if err = manager.SaveAgent(ctx); err != nil {
			return err
		}
	}

	term.Printf("OK. Quitting.\n")

	return nil
}

func plotAgent(ctx context.Context, log *slog.Logger, conf *config.Config, agentRepo repository.AgentRepository) error {
	snapshot, err := agentRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("could not load agent: %w", err)
	}

	if err = plot.SaveCumulativeReward(conf.Plot.Path, snapshot.Rewards, conf.Plot.Width, conf.Plot.Height); err != nil {
		return fmt.Errorf("could not plot rewards: %w", err)
	}

	log.Info("reward plot saved", "path", conf.Plot.Path, "episodes", len(snapshot.Rewards))

	return nil
}

// loadOrCreateAgent returns nil without error when the user refuses to overwrite a saved agent.
func loadOrCreateAgent(ctx context.Context, conf *config.Config, opts Options, agentRepo repository.AgentRepository, term *terminal.Terminal) (*agent.QLearner, error) {
	seed := conf.Agent.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed)) //nolint: gosec // exploration does not need crypto randomness

	if opts.Load {
		snapshot, err := agentRepo.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not load agent: %w", err)
		}

		learner, err := agent.FromSnapshot(snapshot, rnd)
		if err != nil {
			return nil, fmt.Errorf("could not restore agent: %w", err)
		}

		return learner, nil
	}

	exists, err := agentRepo.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not check for a saved agent: %w", err)
	}

	if exists && !opts.Force {
		overwrite, err := term.Confirm(ctx, "An agent state is already saved for this type. Are you sure you want to overwrite? [y/n]: ")
		if err != nil {
			return nil, fmt.Errorf("could not confirm overwrite: %w", err)
		}

		if !overwrite {
			return nil, nil
		}
	}

	learner, err := agent.New(conf.Agent.Name, entity.Hyperparameters{
		Alpha:   conf.Agent.Alpha,
		Gamma:   conf.Agent.Gamma,
		Epsilon: conf.Agent.Epsilon,
	}, rnd)
	if err != nil {
		return nil, fmt.Errorf("could not create agent: %w", err)
	}

	return learner, nil
}

func openAgentRepository(ctx context.Context, conf *config.Config) (repository.AgentRepository, func() error, error) {
	noop := func() error { return nil }

	switch conf.Storage.Driver {
	case config.StorageRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Storage.Redis.GetRedisAddr())
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
		}

		return repository.NewRedisAgentRepository(redisStorage.Connection, conf.Agent.Name), redisStorage.Close, nil
	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, noop, fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
		}

		return repository.NewSQLiteAgentRepository(sqliteStorage.Connection, conf.Agent.Name), sqliteStorage.Close, nil
	case config.StorageFile:
		return repository.NewFileAgentRepository(conf.Storage.Path), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", config.ErrUnknownStorage, conf.Storage.Driver)
	}
}
