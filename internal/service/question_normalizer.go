package service

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"skill_assess_backend/internal/model"
	"skill_assess_backend/pkg/logger"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultExplanation  = "Check the documentation for details"
	defaultCodeSolution = "// Solution code here"
)

var (
	optionPrefix = regexp.MustCompile(`^\s*[A-D]\)\s+`)
	labelPrefix  = regexp.MustCompile(`^\(?([A-Da-d])(?:[).:\s]|$)`)
)

// QuestionNormalizer turns untrusted records into complete questions,
// padding from the fallback bank where records are unusable.
type QuestionNormalizer struct {
	bank      *FallbackBank
	points    PointsTable
	maxPoints int
}

func NewQuestionNormalizer(bank *FallbackBank, points PointsTable, maxPoints int) *QuestionNormalizer {
	if maxPoints < 1 {
		maxPoints = 20
	}
	return &QuestionNormalizer{bank: bank, points: points, maxPoints: maxPoints}
}

// Normalize always returns exactly n questions for n > 0. The bool reports
// whether any of them came from the fallback bank.
func (n *QuestionNormalizer) Normalize(records []RawRecord, topic string, difficulty model.Difficulty, count int, variant model.Variant) ([]model.Question, bool) {
	if count <= 0 {
		return nil, false
	}
	if len(records) > count {
		records = records[:count]
	}

	out := make([]model.Question, 0, count)
	dropped := 0
	for i, rec := range records {
		q, reason := n.normalizeRecord(rec, topic, difficulty, variant)
		if reason != "" {
			dropped++
			logger.Log.Debug("dropping question record",
				zap.Int("index", i),
				zap.String("variant", string(variant)),
				zap.String("reason", reason),
			)
			continue
		}
		out = append(out, q)
	}

	if len(out) == 0 {
		logger.Log.Warn("no usable question records, using fallback questions",
			zap.String("topic", topic),
			zap.String("variant", string(variant)),
			zap.Int("records", len(records)),
		)
		return n.bank.Questions(topic, difficulty, variant, count), true
	}
	usedBank := false
	if kept := len(out); kept < count {
		for pos := kept; pos < count; pos++ {
			out = append(out, n.bank.Record(topic, difficulty, variant, pos))
		}
		usedBank = true
		logger.Log.Info("padded questions from fallback bank",
			zap.String("variant", string(variant)),
			zap.Int("dropped", dropped),
			zap.Int("padded", count-kept),
		)
	}

	assignQuestionIDs(out, topic, variant)
	return out, usedBank
}

// normalizeRecord returns a non-empty reason when the record is unusable.
func (n *QuestionNormalizer) normalizeRecord(rec RawRecord, topic string, difficulty model.Difficulty, variant model.Variant) (model.Question, string) {
	q := model.Question{
		Variant: variant,
		Prompt:  stringField(rec, "question", "prompt"),
		Points:  n.pointsFor(rec["points"], variant, difficulty),
	}

	switch variant {
	case model.VariantMCQ:
		q.Options = normalizeOptions(rec["options"])
		if q.Options == nil {
			return q, "options A-D incomplete"
		}
		raw := stringField(rec, "correct", "correct_label", "answer")
		label, ok := normalizeLabel(raw)
		if !ok {
			return q, fmt.Sprintf("correct answer %q is not one of A-D", truncate(raw, 40))
		}
		q.CorrectLabel = label
		q.Explanation = stringField(rec, "explanation")
		if q.Explanation == "" {
			q.Explanation = defaultExplanation
		}
		if q.Prompt == "" {
			q.Prompt = fmt.Sprintf("What is an important concept in %s?", topic)
		}
	case model.VariantCode:
		q.Template = stringField(rec, "template")
		if q.Template == "" {
			q.Template = codeTemplate(topic)
		}
		q.ReferenceSolution = stringField(rec, "solution", "reference_solution")
		if q.ReferenceSolution == "" {
			q.ReferenceSolution = defaultCodeSolution
		}
		q.TestCases = normalizeTestCases(rec["test_cases"])
		if len(q.TestCases) == 0 {
			q.TestCases = []model.TestCase{{Input: "example", Expected: "result"}}
		}
		if q.Prompt == "" {
			q.Prompt = fmt.Sprintf("Write a %s function", topic)
		}
	case model.VariantText:
		q.ReferenceSolution = stringField(rec, "solution", "answer", "reference_answer")
		if q.Prompt == "" {
			q.Prompt = fmt.Sprintf("Explain an important concept in %s.", topic)
		}
	}

	if !q.Complete() {
		return q, "required fields missing"
	}
	return q, ""
}

// pointsFor keeps a whole number in [1, maxPoints], else the tier default.
func (n *QuestionNormalizer) pointsFor(v interface{}, variant model.Variant, difficulty model.Difficulty) int {
	var f float64
	switch p := v.(type) {
	case float64:
		f = p
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return n.points.Points(variant, difficulty)
		}
		f = parsed
	default:
		return n.points.Points(variant, difficulty)
	}
	if f != math.Trunc(f) || f < 1 || f > float64(n.maxPoints) {
		return n.points.Points(variant, difficulty)
	}
	return int(f)
}

// normalizeOptions accepts a labeled object or a positional list and
// returns nil unless all of A-D end up with non-empty text. List entries
// lose only an "X) " label; text such as "d.getDay()" is kept as is.
func normalizeOptions(v interface{}) map[string]string {
	opts := make(map[string]string, len(model.OptionLabels))
	switch o := v.(type) {
	case map[string]interface{}:
		for k, val := range o {
			label := strings.ToUpper(strings.TrimSpace(k))
			if !model.IsOptionLabel(label) {
				continue
			}
			opts[label] = strings.TrimSpace(stringify(val))
		}
	case []interface{}:
		for i, val := range o {
			if i >= len(model.OptionLabels) {
				break
			}
			s := optionPrefix.ReplaceAllString(stringify(val), "")
			opts[model.OptionLabels[i]] = strings.TrimSpace(s)
		}
	default:
		return nil
	}

	for _, l := range model.OptionLabels {
		if opts[l] == "" {
			return nil
		}
	}
	return opts
}

// normalizeLabel maps "b", "B)", "B. text" and similar onto "B".
func normalizeLabel(s string) (string, bool) {
	m := labelPrefix.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

func normalizeTestCases(v interface{}) []model.TestCase {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	cases := make([]model.TestCase, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		tc := model.TestCase{
			Input:    stringify(m["input"]),
			Expected: stringify(firstPresent(m, "expected", "output")),
		}
		if tc.Input == "" && tc.Expected == "" {
			continue
		}
		cases = append(cases, tc)
	}
	return cases
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// stringField returns the first non-blank string value among keys.
func stringField(rec RawRecord, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
