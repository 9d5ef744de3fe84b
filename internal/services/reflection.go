package services

import "strings"

// ScoreReflection computes the heuristic quality score for a free-text
// reflection answer: five points per whitespace-separated word, capped at
// 100. Deliberately crude; there is no semantic evaluation.
func ScoreReflection(answerText string) int {
	words := len(strings.Fields(answerText))
	score := words * 5
	if score > 100 {
		return 100
	}
	return score
}
