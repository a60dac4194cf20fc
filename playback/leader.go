package playback

import "strings"

// Leader election scores each element's display name against rhythm-relevance
// patterns. A rhythmically foundational part rarely contains long silence and
// makes the most perceptually meaningful clock reference, so kick and drum
// stems outrank melodic ones. Scores for multiple matching patterns add up.
var leaderPatterns = []struct {
	substr string
	score  int
}{
	{"kick", 200},
	{"main drums", 90},
	{"drum", 80},
	{"beat", 70},
	{"perc", 60},
	{"hat", 50},
	{"clap", 50},
	{"snare", 50},
	{"bass", 40},
}

func leaderScore(name string) int {
	lower := strings.ToLower(name)
	score := 0
	for _, p := range leaderPatterns {
		if strings.Contains(lower, p.substr) {
			score += p.score
		}
	}
	return score
}

// electLeaderIndex picks the highest-scoring element, ties broken by lowest
// index. With no pattern match anywhere the first element wins.
func electLeaderIndex(elements []Element) int {
	best, bestScore := 0, 0
	for i, el := range elements {
		if s := leaderScore(el.Name()); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
