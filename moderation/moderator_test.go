package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T) Moderator {
	t.Helper()
	words, languages, err := LoadWordlists()
	require.NoError(t, err)
	require.NotEmpty(t, words)
	require.Contains(t, languages, "en")
	require.Contains(t, languages, "fr")

	moderator, err := NewModerator(words, '*')
	require.NoError(t, err)
	return moderator
}

func TestCensor_ReplacesBlacklistedWord(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("you damn fool")

	req.Equal("you **** fool", censored)
	req.Equal([]string{"damn"}, found)
}

func TestCensor_LeavesCleanTextUntouched(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("hello everyone, nice evening")

	req.Equal("hello everyone, nice evening", censored)
	req.Empty(found)
}

func TestCensor_DefeatsLeetSpeak(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("what an 1d10t move")

	req.Equal("what an ***** move", censored)
	req.Equal([]string{"idiot"}, found)
}

func TestCensor_DefeatsSeparators(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("d.a.m.n")

	req.Equal("*******", censored)
	req.Equal([]string{"damn"}, found)
}

func TestCensor_CoversEveryLanguage(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("quelle merde")

	req.Equal("quelle *****", censored)
	req.Equal([]string{"merde"}, found)
}

func TestCensor_EmptyInput(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, found := moderator.Censor("")
	req.Equal("", censored)
	req.Empty(found)
}
