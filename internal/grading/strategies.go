package grading

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Mont3ll/lms-backend/internal/models"
)

// ===== MULTIPLE CHOICE =====

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.MultipleChoiceContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	correctID := content.CorrectOptionID()
	if correctID != "" && answer.Choice == correctID {
		return Result{
			PointsAwarded: float64(question.Points),
			Correct:       true,
			Feedback:      "Correct! Well done.",
		}, nil
	}

	return Result{Feedback: "Incorrect answer."}, nil
}

// ===== MULTI SELECT =====

type multiSelectStrategy struct{}

// Multi-select is all-or-nothing: full points only when the submitted set
// equals the correct set exactly. Subsets and supersets score zero.
func (multiSelectStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.MultiSelectContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	correct := content.CorrectOptionIDs()
	if len(correct) == 0 || len(answer.Choices) != len(correct) {
		return Result{Feedback: "Incorrect selection."}, nil
	}
	for _, id := range answer.Choices {
		if !correct[id] {
			return Result{Feedback: "Incorrect selection."}, nil
		}
	}

	return Result{
		PointsAwarded: float64(question.Points),
		Correct:       true,
		Feedback:      "Correct! All options matched.",
	}, nil
}

// ===== TRUE / FALSE =====

type trueFalseStrategy struct{}

func (trueFalseStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.TrueFalseContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	if answer.Flag == content.CorrectAnswer {
		return Result{
			PointsAwarded: float64(question.Points),
			Correct:       true,
			Feedback:      "Correct!",
		}, nil
	}

	correctText := "True"
	if !content.CorrectAnswer {
		correctText = "False"
	}
	return Result{Feedback: fmt.Sprintf("Incorrect. The correct answer is: %s", correctText)}, nil
}

// ===== SHORT ANSWER =====

type shortAnswerStrategy struct{}

// Short answers match exactly after trimming, case-insensitively unless the
// question opts into case sensitivity. No fuzzy matching.
func (shortAnswerStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.ShortAnswerContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	for _, accepted := range content.AcceptedAnswers {
		if compareStrings(answer.Text, accepted, content.CaseSensitive) {
			return Result{
				PointsAwarded: float64(question.Points),
				Correct:       true,
				Feedback:      "Correct answer!",
			}, nil
		}
	}

	return Result{Feedback: "Your answer doesn't match the expected response."}, nil
}

// ===== NUMERIC RANGE =====

type numericRangeStrategy struct{}

// Full points when the submitted number lies within the inclusive [min, max]
// bound; otherwise zero.
func (numericRangeStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.NumericRangeContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	if answer.Value >= content.Min && answer.Value <= content.Max {
		return Result{
			PointsAwarded: float64(question.Points),
			Correct:       true,
			Feedback:      "Correct!",
		}, nil
	}

	return Result{Feedback: "The submitted value is outside the accepted range."}, nil
}

// ===== MATCHING =====

type matchingStrategy struct{}

// Matching is the one partial-credit strategy: each correctly matched pair
// earns points/pair_count, the sum is rounded half-up to two decimal places
// and never exceeds the question's point value.
func (matchingStrategy) Score(question *models.Question, answer Answer) (Result, error) {
	var content models.MatchingContent
	if err := json.Unmarshal(question.Content, &content); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal question content: %w", err)
	}

	total := len(content.CorrectPairs)
	if total == 0 {
		return Result{Feedback: "No pairs to match."}, nil
	}

	correct := 0
	for _, pair := range content.CorrectPairs {
		if answer.Pairs[pair.LeftID] == pair.RightID {
			correct++
		}
	}

	points := float64(question.Points)
	awarded := roundHalfUp(points*float64(correct)/float64(total), 2)
	if awarded > points {
		awarded = points
	}

	if correct == total {
		return Result{
			PointsAwarded: awarded,
			Correct:       true,
			Feedback:      "All items matched correctly!",
		}, nil
	}

	return Result{
		PointsAwarded: awarded,
		Feedback:      fmt.Sprintf("%d of %d pairs matched correctly.", correct, total),
	}, nil
}

// ===== HELPERS =====

func compareStrings(s1, s2 string, caseSensitive bool) bool {
	s1 = strings.TrimSpace(s1)
	s2 = strings.TrimSpace(s2)
	if !caseSensitive {
		s1 = strings.ToLower(s1)
		s2 = strings.ToLower(s2)
	}
	return s1 == s2
}

// roundHalfUp rounds to the given number of decimal places with ties going
// away from zero, matching how partial credit has always been reported.
func roundHalfUp(value float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Floor(value*shift+0.5) / shift
}
