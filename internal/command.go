package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCommand wires the command line flags to RunApp.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := Options{}

	cmd := &cobra.Command{
		Use:           "tictactoe",
		Short:         "Play Tic-Tac-Toe against a Q-learning agent, or teach it with an optimal opponent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Teach = cmd.Flags().Changed("teacher-episodes")

			// conflicting flags fail before any config or agent state is touched
			if _, err := ResolveMode(opts); err != nil {
				return err
			}

			conf, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := NewLogger(conf, os.Stdout)

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return RunApp(ctx, logger, conf, opts, in, out)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "./config.yml", "path to the config file")
	cmd.Flags().BoolVarP(&opts.Load, "load", "l", false, "whether to load trained agent")
	cmd.Flags().IntVarP(&opts.TeacherEpisodes, "teacher-episodes", "t", 0,
		"employ teacher agent who knows the optimal strategy and will play for TEACHER_EPISODES games")
	cmd.Flags().BoolVarP(&opts.Plot, "plot", "p", false, "whether to plot reward vs. episode of stored agent and quit")
	cmd.Flags().BoolVar(&opts.Learn, "learn", false, "keep learning while playing against a human and save the agent afterwards")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite a saved agent without asking")

	cmd.SetIn(in)
	cmd.SetOut(out)

	return cmd
}

// Execute runs the root command with the process streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx)
}
