package application

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/config"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-qlearning/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Mode
		wantErr error
	}{
		{name: "Play by default", opts: Options{}, want: ModePlay},
		{name: "Play a loaded agent", opts: Options{Load: true, Learn: true}, want: ModePlay},
		{name: "Train with episodes", opts: Options{Teach: true, TeacherEpisodes: 10}, want: ModeTrain},
		{name: "Plot a loaded agent", opts: Options{Plot: true, Load: true}, want: ModePlot},
		{name: "Plot needs a loaded agent", opts: Options{Plot: true}, wantErr: apperror.ErrConfigConflict},
		{name: "Plot excludes teaching", opts: Options{Plot: true, Load: true, Teach: true, TeacherEpisodes: 5}, wantErr: apperror.ErrConfigConflict},
		{name: "Plot excludes learning", opts: Options{Plot: true, Load: true, Learn: true}, wantErr: apperror.ErrConfigConflict},
		{name: "Teaching excludes learning", opts: Options{Teach: true, TeacherEpisodes: 5, Learn: true}, wantErr: apperror.ErrConfigConflict},
		{name: "Teaching needs episodes", opts: Options{Teach: true}, wantErr: usecase.ErrInvalidEpisodes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveMode(tt.opts)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		LogLevel: "error",
		Agent: config.Agent{
			Name:    "test",
			Mark:    "O",
			Alpha:   0.5,
			Gamma:   0.9,
			Epsilon: 0.1,
			Seed:    7,
		},
		Training: config.Training{
			ReportEvery:   100,
			EvaluateGames: 2,
			WinReward:     1,
			LossReward:    -1,
		},
		Storage: config.Storage{
			Driver: config.StorageFile,
			Path:   filepath.Join(dir, "agent.json"),
		},
		Plot: config.Plot{
			Path:   filepath.Join(dir, "reward.png"),
			Width:  4,
			Height: 3,
		},
	}
}

func TestRunApp(t *testing.T) {
	ctx := context.Background()
	logger := suite.NewLogger()

	t.Run("Train then plot then play", func(t *testing.T) {
		conf := newTestConfig(t)

		// Given: an agent taught for a few hundred episodes
		var out bytes.Buffer
		err := RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 300}, strings.NewReader(""), &out)
		require.NoError(t, err)

		snapshot, err := repository.NewFileAgentRepository(conf.Storage.Path).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, snapshot.Rewards, 300)
		assert.NotEmpty(t, snapshot.QTable)

		// When: plotting its rewards
		require.NoError(t, os.Remove(conf.Plot.Path))
		err = RunApp(ctx, logger, conf, Options{Plot: true, Load: true}, strings.NewReader(""), &out)

		// Then: the image is written again
		require.NoError(t, err)
		assert.FileExists(t, conf.Plot.Path)

		// When: a human plays one game and declines another
		out.Reset()
		input := strings.NewReader("1\n2\n3\n4\n5\n6\n7\n8\n9\nn\n")
		err = RunApp(ctx, logger, conf, Options{Load: true}, input, &out)

		// Then: the session ends politely
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Welcome to Tic-Tac-Toe")
		assert.Contains(t, out.String(), "Games played: 1")
		assert.Contains(t, out.String(), "OK. Quitting.")
	})

	t.Run("Declining to overwrite keeps the saved agent", func(t *testing.T) {
		conf := newTestConfig(t)
		require.NoError(t, RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 5}, strings.NewReader(""), &bytes.Buffer{}))
		before, err := os.ReadFile(conf.Storage.Path)
		require.NoError(t, err)

		// When: teaching again and answering no
		var out bytes.Buffer
		err = RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 5}, strings.NewReader("n\n"), &out)

		// Then: nothing changed
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Are you sure you want to overwrite?")
		assert.Contains(t, out.String(), "OK. Quitting.")
		after, err := os.ReadFile(conf.Storage.Path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Force overwrites without asking", func(t *testing.T) {
		conf := newTestConfig(t)
		require.NoError(t, RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 5}, strings.NewReader(""), &bytes.Buffer{}))

		var out bytes.Buffer
		err := RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 7, Force: true}, strings.NewReader(""), &out)

		require.NoError(t, err)
		assert.NotContains(t, out.String(), "overwrite")
		snapshot, err := repository.NewFileAgentRepository(conf.Storage.Path).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, snapshot.Rewards, 7)
	})

	t.Run("Teaching reports the agent by name", func(t *testing.T) {
		// Given: a logger that keeps its output
		conf := newTestConfig(t)
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

		// When: teaching
		err := RunApp(ctx, logger, conf, Options{Teach: true, TeacherEpisodes: 3}, strings.NewReader(""), &bytes.Buffer{})

		// Then: the summary names the agent
		require.NoError(t, err)
		assert.Contains(t, logs.String(), `"msg":"teaching finished"`)
		assert.Contains(t, logs.String(), `"agent":"test"`)
	})

	t.Run("Loading a missing agent fails", func(t *testing.T) {
		conf := newTestConfig(t)

		err := RunApp(ctx, logger, conf, Options{Load: true}, strings.NewReader(""), &bytes.Buffer{})

		assert.ErrorIs(t, err, apperror.ErrAgentNotFound)
	})

	t.Run("Unknown storage driver", func(t *testing.T) {
		conf := newTestConfig(t)
		conf.Storage.Driver = "tape"

		err := RunApp(ctx, logger, conf, Options{}, strings.NewReader(""), &bytes.Buffer{})

		assert.ErrorIs(t, err, config.ErrUnknownStorage)
	})
}

func TestRootCommand(t *testing.T) {
	t.Run("Conflicting flags fail before anything is loaded", func(t *testing.T) {
		cmd := NewRootCommand(strings.NewReader(""), &bytes.Buffer{})
		cmd.SetArgs([]string{"--plot", "--config", filepath.Join(t.TempDir(), "missing.yml")})

		err := cmd.ExecuteContext(context.Background())

		assert.ErrorIs(t, err, apperror.ErrConfigConflict)
	})

	t.Run("Zero teacher episodes are rejected", func(t *testing.T) {
		cmd := NewRootCommand(strings.NewReader(""), &bytes.Buffer{})
		cmd.SetArgs([]string{"-t", "0"})

		err := cmd.ExecuteContext(context.Background())

		assert.ErrorIs(t, err, usecase.ErrInvalidEpisodes)
	})
}
