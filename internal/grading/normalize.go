package grading

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Mont3ll/lms-backend/internal/models"
)

// Answer is the canonical form of a submitted answer. Exactly one field group
// is populated, matching the question type it was normalized for.
type Answer struct {
	Choice  string            // multiple_choice: selected option id
	Choices []string          // multi_select: selected option ids, sorted
	Flag    bool              // true_false
	Text    string            // short_answer
	Value   float64           // numeric_range
	Pairs   map[string]string // matching: left id -> right id
}

// Normalize converts a raw submitted payload into the canonical form for the
// question's type. Payloads of the wrong shape fail with
// ErrInvalidAnswerFormat.
func Normalize(questionType models.QuestionType, raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 {
		return Answer{}, fmt.Errorf("%w: empty payload", ErrInvalidAnswerFormat)
	}

	switch questionType {
	case models.MultipleChoice:
		return normalizeChoice(raw)
	case models.MultiSelect:
		return normalizeChoices(raw)
	case models.TrueFalse:
		return normalizeFlag(raw)
	case models.ShortAnswer:
		return normalizeText(raw)
	case models.NumericRange:
		return normalizeNumber(raw)
	case models.Matching:
		return normalizePairs(raw)
	default:
		return Answer{}, fmt.Errorf("%w: %s", ErrUnsupportedQuestionType, questionType)
	}
}

func normalizeChoice(raw json.RawMessage) (Answer, error) {
	var choice string
	if err := json.Unmarshal(raw, &choice); err == nil && choice != "" {
		return Answer{Choice: choice}, nil
	}

	// Some clients send a single-element array for single-choice questions.
	var choices []string
	if err := json.Unmarshal(raw, &choices); err == nil && len(choices) == 1 {
		return Answer{Choice: choices[0]}, nil
	}

	return Answer{}, fmt.Errorf("%w: expected a selected option id", ErrInvalidAnswerFormat)
}

func normalizeChoices(raw json.RawMessage) (Answer, error) {
	var choices []string
	if err := json.Unmarshal(raw, &choices); err != nil {
		return Answer{}, fmt.Errorf("%w: expected a list of option ids", ErrInvalidAnswerFormat)
	}

	// Deduplicate and sort so set comparison is order-independent.
	seen := make(map[string]bool, len(choices))
	unique := make([]string, 0, len(choices))
	for _, id := range choices {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)

	return Answer{Choices: unique}, nil
}

func normalizeFlag(raw json.RawMessage) (Answer, error) {
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return Answer{Flag: flag}, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		switch text {
		case "true", "True", "TRUE":
			return Answer{Flag: true}, nil
		case "false", "False", "FALSE":
			return Answer{Flag: false}, nil
		}
	}

	return Answer{}, fmt.Errorf("%w: expected a boolean", ErrInvalidAnswerFormat)
}

func normalizeText(raw json.RawMessage) (Answer, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return Answer{}, fmt.Errorf("%w: expected free text", ErrInvalidAnswerFormat)
	}
	return Answer{Text: text}, nil
}

func normalizeNumber(raw json.RawMessage) (Answer, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return Answer{}, fmt.Errorf("%w: expected a number", ErrInvalidAnswerFormat)
	}
	return Answer{Value: value}, nil
}

func normalizePairs(raw json.RawMessage) (Answer, error) {
	var pairs map[string]string
	if err := json.Unmarshal(raw, &pairs); err == nil {
		return Answer{Pairs: pairs}, nil
	}

	// Pair-list form: [{"left_id": "...", "right_id": "..."}, ...]
	var list []models.MatchPair
	if err := json.Unmarshal(raw, &list); err == nil {
		pairs = make(map[string]string, len(list))
		for _, p := range list {
			if p.LeftID == "" {
				return Answer{}, fmt.Errorf("%w: matching pair missing left id", ErrInvalidAnswerFormat)
			}
			pairs[p.LeftID] = p.RightID
		}
		return Answer{Pairs: pairs}, nil
	}

	return Answer{}, fmt.Errorf("%w: expected matching pairs", ErrInvalidAnswerFormat)
}
