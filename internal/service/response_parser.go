package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"skill_assess_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
)

// RawRecord is one untrusted question object decoded from an oracle reply.
type RawRecord = map[string]interface{}

var (
	errEmptyArray = errors.New("no records in array")
	errNoArray    = errors.New("no JSON array found")

	openingFence = regexp.MustCompile("^```[A-Za-z0-9_+-]*")
)

// ParseQuestionResponse turns an oracle reply into raw records. The second
// result is false when the caller must use fallback content instead: the
// oracle failed, or nothing decodable was found.
func ParseQuestionResponse(raw string, askErr error) ([]RawRecord, bool) {
	if askErr != nil {
		logger.Log.Warn("oracle failed, using fallback questions", zap.Error(askErr))
		return nil, false
	}

	records, err := extractRecords(raw)
	if err != nil {
		logger.Log.Warn("could not parse oracle response, using fallback questions",
			zap.Error(err),
			zap.String("response", truncate(raw, 300)),
		)
		return nil, false
	}

	logger.Log.Debug("parsed oracle response", zap.Int("records", len(records)))
	return records, true
}

// extractRecords tries, in order: the outermost [...] span of the cleaned
// text, then the whole cleaned text.
func extractRecords(raw string) ([]RawRecord, error) {
	cleaned := stripCodeFence(raw)

	var spanErr error = errNoArray
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start != -1 && end > start {
		records, err := decodeRecords(cleaned[start : end+1])
		if err == nil {
			return records, nil
		}
		spanErr = err
	}

	records, err := decodeRecords(cleaned)
	if err == nil {
		return records, nil
	}
	return nil, errors.Join(spanErr, err)
}

// stripCodeFence removes one leading fence (optionally language tagged) and
// one trailing fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if loc := openingFence.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeRecords(s string) ([]RawRecord, error) {
	var records []RawRecord
	if err := json.Unmarshal([]byte(s), &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errEmptyArray
	}
	return records, nil
}
