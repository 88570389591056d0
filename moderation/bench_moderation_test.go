package moderation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Moderation_Benchmark(t *testing.T) {
	req := require.New(t)

	wordCount := 100_000

	// --- Phase 1: SYNTHETIC WORDLIST ---
	words := make([]string, wordCount)
	for i := 0; i < wordCount; i++ {
		words[i] = fmt.Sprintf("word_%d", i)
	}

	// --- Phase 2: BUILDING AHO-CORASICK ---
	startBuild := time.Now()
	moderator, err := NewModerator(words, '*')
	req.NoError(err)
	fmt.Printf("✅ Building AC Automaton over %d words: %v\n", wordCount, time.Since(startBuild))

	// --- Phase 3: CENSOR THROUGHPUT ---
	message := strings.Repeat("hello word_42 everyone ", 20)
	rounds := 10_000

	startCensor := time.Now()
	for i := 0; i < rounds; i++ {
		censored, found := moderator.Censor(message)
		req.NotEmpty(censored)
		req.NotEmpty(found)
	}
	elapsed := time.Since(startCensor)
	fmt.Printf("✅ Censoring %d messages: %v (%v/msg)\n", rounds, elapsed, elapsed/time.Duration(rounds))
}
