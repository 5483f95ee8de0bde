package parallel

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/obscuro/engine"
	"github.com/lox/obscuro/game"
	"github.com/lox/obscuro/game/fixtures"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig(solveTime time.Duration) Config {
	return Config{
		Config: engine.Config{
			SolveTime:             solveTime,
			MinInfosetSize:        1,
			KCover:                3,
			ExploreConstant:       1.4,
			CFRSweepsPerExpansion: 2,
		},
		SolverThreads: 2,
	}
}

func TestMakeMoveReturnsLegalAction(t *testing.T) {
	e := New(fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, testConfig(10*time.Millisecond), 11, quartz.NewReal(), testLogger())

	seed := fixtures.NewMatchingPennies()
	action, err := e.MakeMove(context.Background(), seed, game.PlayerOne)
	require.NoError(t, err)
	assert.Contains(t, []game.Action{fixtures.Heads, fixtures.Tails}, action, "expected a legal Matching Pennies action")
}

func TestStudyPositionIsIdempotentForSameObservation(t *testing.T) {
	e := New(fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, testConfig(5*time.Millisecond), 12, quartz.NewReal(), testLogger())

	seed := fixtures.NewMatchingPennies()
	require.NoError(t, e.StudyPosition(context.Background(), seed, game.PlayerOne))
	sizeAfterFirst := e.Size()

	require.NoError(t, e.StudyPosition(context.Background(), seed, game.PlayerOne))
	assert.Equal(t, sizeAfterFirst, e.Size(), "expected idempotent StudyPosition to leave infoset count unchanged")
}

func TestStudyPositionGrowsInfosetsUnderConcurrentWorkers(t *testing.T) {
	e := New(fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, testConfig(20*time.Millisecond), 13, quartz.NewReal(), testLogger())

	seed := fixtures.NewMatchingPennies()
	require.NoError(t, e.StudyPosition(context.Background(), seed, game.PlayerOne))

	assert.NotZero(t, e.Size(), "expected at least one infoset to be registered after studying")
}

func TestStudyPositionHonorsCallerContextCancellation(t *testing.T) {
	e := New(fixtures.DecodeMatchingPennies, fixtures.HeuristicMatchingPennies, nil, testConfig(time.Second), 14, quartz.NewReal(), testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	seed := fixtures.NewMatchingPennies()
	start := time.Now()
	require.NoError(t, e.StudyPosition(ctx, seed, game.PlayerOne))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "expected StudyPosition to respect the caller's shorter deadline")
}
