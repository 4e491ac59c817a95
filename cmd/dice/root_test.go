package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/dice-roller/internal/adapters/http/dto"
	"github.com/jsamuelsen/dice-roller/internal/dice"
)

// fixedSource always rolls the highest face.
type fixedSource struct{}

func (fixedSource) IntN(n int) int { return n - 1 }

func runDice(t *testing.T, tty bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := newRootCmd(options{
		out:    &stdout,
		err:    &stderr,
		tty:    func() bool { return tty },
		source: dice.NewSeededSource(3, 5),
	})
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestRoll_JSONWhenPiped(t *testing.T) {
	stdout, _, err := runDice(t, false, "roll", "--parallel", "1", "2d6+3", "1d20")
	require.NoError(t, err)

	var resp dto.BatchResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "2d6+3", resp.Results[0].Input)
	require.NotNil(t, resp.Results[0].Total)
	assert.GreaterOrEqual(t, *resp.Results[0].Total, 5)
	assert.LessOrEqual(t, *resp.Results[0].Total, 15)
	assert.Len(t, resp.Results[0].Breakdown, 2)

	assert.Equal(t, "1d20", resp.Results[1].Input)
	assert.Empty(t, resp.Results[1].Error)
}

func TestRoll_PrettyOnTerminal(t *testing.T) {
	var stdout, stderr bytes.Buffer

	root := newRootCmd(options{
		out:    &stdout,
		err:    &stderr,
		tty:    func() bool { return true },
		source: fixedSource{},
	})
	root.SetArgs([]string{"roll", "--parallel", "1", "3d6-2"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "3d6-2 = 16\n  3d6: [6, 6, 6] = 18\n  (-2)\n", stdout.String())
}

func TestRoll_JSONFlagOverridesTerminal(t *testing.T) {
	stdout, _, err := runDice(t, true, "roll", "--json", "1d4")
	require.NoError(t, err)

	assert.True(t, json.Valid([]byte(stdout)))
}

func TestRoll_FailureExitsNonZero(t *testing.T) {
	stdout, _, err := runDice(t, true, "roll", "--parallel", "1", "1d6", "abc")

	require.ErrorIs(t, err, errRollFailed)
	assert.Contains(t, stdout, "1d6 = ")
	assert.Contains(t, stdout, "abc\n  Error: Invalid dice notation")
}

func TestRoll_MaxGroups(t *testing.T) {
	stdout, _, err := runDice(t, false, "roll", "--max-groups", "1", "1d4+1d6")

	require.ErrorIs(t, err, errRollFailed)
	assert.Contains(t, stdout, `"error"`)
}

func TestRoll_RequiresExpression(t *testing.T) {
	_, _, err := runDice(t, false, "roll")

	require.Error(t, err)
	assert.NotErrorIs(t, err, errRollFailed)
}

func TestVersion(t *testing.T) {
	stdout, _, err := runDice(t, false, "version")
	require.NoError(t, err)

	assert.Contains(t, stdout, "dice dev (commit unknown")
}
