package service

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultScore is used when a grading reply carries no readable score.
const DefaultScore = 5.0

var (
	scoreMarker = regexp.MustCompile(`(?i)\bscore\b\**\s*:`)
	scoreNumber = regexp.MustCompile(`-?(?:\d+(?:\.\d+)?|\.\d+)`)
)

// ParseScore reads the first number after the SCORE: marker on the first line
// that carries one, e.g. "SCORE: 8/10" or "**Score**: 7.5". Prose that merely
// mentions the word is not a marker. The result is
// clamped to [0,10]. ok is false when DefaultScore was returned instead.
func ParseScore(text string) (score float64, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		loc := scoreMarker.FindStringIndex(line)
		if loc == nil {
			continue
		}
		num := scoreNumber.FindString(line[loc[1]:])
		if num == "" {
			return DefaultScore, false
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return DefaultScore, false
		}
		return clampScore(v), true
	}
	return DefaultScore, false
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	}
	return v
}
