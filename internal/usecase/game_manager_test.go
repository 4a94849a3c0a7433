package usecase

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/agent"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/rocketscienceinc/tictactoe-qlearning/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transition struct {
	key     entity.BoardKey
	action  int
	reward  float64
	nextKey entity.BoardKey
	done    bool
}

// scriptedLearner plays a fixed list of cells and records what it is taught.
type scriptedLearner struct {
	moves       []int
	transitions []transition
	rewards     []float64
}

func (that *scriptedLearner) SelectAction(_ entity.Board, _ bool) (int, error) {
	if len(that.moves) == 0 {
		return 0, errors.New("script exhausted")
	}

	cell := that.moves[0]
	that.moves = that.moves[1:]

	return cell, nil
}

func (that *scriptedLearner) Update(key entity.BoardKey, action int, reward float64, nextKey entity.BoardKey, done bool) error {
	that.transitions = append(that.transitions, transition{key, action, reward, nextKey, done})
	return nil
}

func (that *scriptedLearner) RecordEpisodeReward(total float64) {
	that.rewards = append(that.rewards, total)
}

func (that *scriptedLearner) GamesPlayed() int {
	return len(that.rewards)
}

func (that *scriptedLearner) Snapshot() *entity.AgentSnapshot {
	return &entity.AgentSnapshot{Rewards: that.rewards}
}

type scriptedOpponent struct {
	moves []int
}

func (that *scriptedOpponent) ChooseMove(_ context.Context, _ entity.Board, _ entity.Mark) (int, error) {
	cell := that.moves[0]
	that.moves = that.moves[1:]

	return cell, nil
}

type memoryRepo struct {
	saved *entity.AgentSnapshot
}

func (that *memoryRepo) Save(_ context.Context, snapshot *entity.AgentSnapshot) error {
	that.saved = snapshot
	return nil
}

func newTestManager(t *testing.T, l learner, mark entity.Mark) (*GameManager, *memoryRepo) {
	t.Helper()

	repo := &memoryRepo{}
	manager, err := NewGameManager(suite.NewLogger(), l, repo, Options{
		AgentMark:   mark,
		Rewards:     RewardScheme{Win: 1, Loss: -1, Draw: 0},
		ReportEvery: 1000,
	})
	require.NoError(t, err)

	return manager, repo
}

func keyOf(t *testing.T, moves ...int) entity.BoardKey {
	t.Helper()

	game := entity.NewGame()
	for _, cell := range moves {
		require.NoError(t, game.MakeTurn(game.Turn, cell))
	}

	return game.Board.Key()
}

func TestGameManager_PlayEpisode(t *testing.T) {
	ctx := context.Background()

	t.Run("Opponent win is credited to the agent's last move", func(t *testing.T) {
		// Given: the agent plays O and the opponent completes the top row
		learner := &scriptedLearner{moves: []int{3, 4}}
		manager, _ := newTestManager(t, learner, entity.MarkO)

		// When: playing one learning episode
		result, err := manager.PlayEpisode(ctx, &scriptedOpponent{moves: []int{0, 1, 2}}, true)

		// Then: one non-terminal and one terminal update were made
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeXWins, result.Outcome)
		assert.InDelta(t, -1, result.Reward, 1e-12)
		assert.Equal(t, []transition{
			{keyOf(t, 0), 3, 0, keyOf(t, 0, 3, 1), false},
			{keyOf(t, 0, 3, 1), 4, -1, keyOf(t, 0, 3, 1, 4, 2), true},
		}, learner.transitions)
		assert.Equal(t, []float64{-1}, learner.rewards)
	})

	t.Run("Agent win is rewarded on the winning move", func(t *testing.T) {
		// Given: the agent plays X and completes the top row
		learner := &scriptedLearner{moves: []int{0, 1, 2}}
		manager, _ := newTestManager(t, learner, entity.MarkX)

		// When: playing one learning episode
		result, err := manager.PlayEpisode(ctx, &scriptedOpponent{moves: []int{3, 4}}, true)

		// Then: the last update carries the win and closes the episode
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeXWins, result.Outcome)
		require.Len(t, learner.transitions, 3)
		assert.Equal(t, transition{keyOf(t, 0, 3), 1, 0, keyOf(t, 0, 3, 1, 4), false}, learner.transitions[1])
		assert.Equal(t, transition{keyOf(t, 0, 3, 1, 4), 2, 1, keyOf(t, 0, 3, 1, 4, 2), true}, learner.transitions[2])
		assert.Equal(t, []float64{1}, learner.rewards)
	})

	t.Run("Draw ends with the draw reward", func(t *testing.T) {
		// Given: a scripted drawn game with the agent as X
		learner := &scriptedLearner{moves: []int{4, 8, 1, 6, 5}}
		manager, _ := newTestManager(t, learner, entity.MarkX)

		// When: playing it
		result, err := manager.PlayEpisode(ctx, &scriptedOpponent{moves: []int{0, 2, 7, 3}}, true)

		// Then: the episode is a draw and the final update is terminal
		require.NoError(t, err)
		assert.Equal(t, entity.OutcomeDraw, result.Outcome)
		last := learner.transitions[len(learner.transitions)-1]
		assert.True(t, last.done)
		assert.Zero(t, last.reward)
	})

	t.Run("Nothing is learned when learning is off", func(t *testing.T) {
		learner := &scriptedLearner{moves: []int{3, 4}}
		manager, _ := newTestManager(t, learner, entity.MarkO)

		_, err := manager.PlayEpisode(ctx, &scriptedOpponent{moves: []int{0, 1, 2}}, false)

		require.NoError(t, err)
		assert.Empty(t, learner.transitions)
		assert.Empty(t, learner.rewards)
	})

	t.Run("Illegal agent move aborts the episode", func(t *testing.T) {
		learner := &scriptedLearner{moves: []int{0}}
		manager, _ := newTestManager(t, learner, entity.MarkO)

		_, err := manager.PlayEpisode(ctx, &scriptedOpponent{moves: []int{0}}, true)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "agent made an illegal turn")
	})

	t.Run("Canceled context stops the episode", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		manager, _ := newTestManager(t, &scriptedLearner{}, entity.MarkO)

		_, err := manager.PlayEpisode(canceled, &scriptedOpponent{}, true)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewGameManager(t *testing.T) {
	_, err := NewGameManager(suite.NewLogger(), &scriptedLearner{}, &memoryRepo{}, Options{AgentMark: "Z"})

	assert.Error(t, err)
}

func newQLearner(t *testing.T, params entity.Hyperparameters, seed int64) *agent.QLearner {
	t.Helper()

	learner, err := agent.New("test", params, rand.New(rand.NewSource(seed))) //nolint: gosec // test
	require.NoError(t, err)

	return learner
}

func TestGameManager_Teach(t *testing.T) {
	ctx := context.Background()
	teacher := service.NewTeacherService()

	t.Run("Agent stops losing to the teacher", func(t *testing.T) {
		for _, mark := range []entity.Mark{entity.MarkX, entity.MarkO} {
			t.Run(string(mark), func(t *testing.T) {
				// Given: a fresh agent with the standard hyperparameters
				learner := newQLearner(t, agent.DefaultHyperparameters(), 42)
				manager, _ := newTestManager(t, learner, mark)

				// When: it is taught for 5000 episodes
				score, err := manager.Teach(ctx, teacher, 5000)
				require.NoError(t, err)
				assert.Equal(t, 5000, score.Total())
				assert.Len(t, learner.Rewards(), 5000)

				// Then: greedy play never loses
				evaluation, err := manager.Evaluate(ctx, teacher, 3)
				require.NoError(t, err)
				assert.Zero(t, evaluation.Losses)
				assert.Zero(t, evaluation.Wins)
			})
		}
	})

	t.Run("Alpha zero never changes the table", func(t *testing.T) {
		// Given: a frozen agent
		learner := newQLearner(t, entity.Hyperparameters{Alpha: 0, Gamma: 0.9, Epsilon: 0.1}, 1)
		manager, _ := newTestManager(t, learner, entity.MarkO)

		// When: teaching it
		_, err := manager.Teach(ctx, teacher, 200)
		require.NoError(t, err)

		// Then: no value was stored but the history was kept
		assert.Empty(t, learner.Snapshot().QTable)
		assert.Equal(t, 200, learner.GamesPlayed())
	})

	t.Run("Rejects a non positive episode count", func(t *testing.T) {
		manager, _ := newTestManager(t, &scriptedLearner{}, entity.MarkO)

		_, err := manager.Teach(ctx, teacher, 0)

		assert.ErrorIs(t, err, ErrInvalidEpisodes)
	})
}

func TestGameManager_SaveAgent(t *testing.T) {
	// Given: an agent with some history
	learner := &scriptedLearner{rewards: []float64{1, 0}}
	manager, repo := newTestManager(t, learner, entity.MarkO)

	// When: saving
	require.NoError(t, manager.SaveAgent(context.Background()))

	// Then: the repository got its snapshot
	require.NotNil(t, repo.saved)
	assert.Equal(t, []float64{1, 0}, repo.saved.Rewards)
}

type scriptedHuman struct {
	scriptedOpponent
	answers []bool
	shown   int
}

func (that *scriptedHuman) ShowResult(_ *EpisodeResult, _ entity.Mark) error {
	that.shown++
	return nil
}

func (that *scriptedHuman) PlayAgain(_ context.Context, _ int) (bool, error) {
	answer := that.answers[0]
	that.answers = that.answers[1:]

	return answer, nil
}

func TestGameManager_Play(t *testing.T) {
	// Given: a human who wins twice along the top row and then stops
	learner := &scriptedLearner{moves: []int{3, 4, 3, 4}}
	manager, _ := newTestManager(t, learner, entity.MarkO)
	human := &scriptedHuman{
		scriptedOpponent: scriptedOpponent{moves: []int{0, 1, 2, 0, 1, 2}},
		answers:          []bool{true, false},
	}

	// When: playing a session without learning
	games, err := manager.Play(context.Background(), human, false)

	// Then: two games were played and shown, and the agent learned nothing
	require.NoError(t, err)
	assert.Equal(t, 2, games)
	assert.Equal(t, 2, human.shown)
	assert.Empty(t, learner.transitions)
}
