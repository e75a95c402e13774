package services

import (
	"encoding/json"
	"strings"

	"github.com/lingopath/backend/internal/models"
)

// normalizeAnswer trims whitespace and lowercases so comparisons ignore
// case and padding
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// gradeAnswer compares a submitted answer against the stored correct
// answer, dispatched on the exercise type tag
func gradeAnswer(exerciseType models.ExerciseType, correctAnswer, userAnswer string) bool {
	switch exerciseType {
	case models.ExerciseTypeMatch:
		return gradeMatchAnswer(correctAnswer, userAnswer)
	default:
		// multiple_choice and input grade as normalized string equality
		return normalizeAnswer(userAnswer) == normalizeAnswer(correctAnswer)
	}
}

// gradeMatchAnswer compares two JSON pair lists as left-to-right maps.
// The submission must cover exactly the same left keys with the same
// right values; pair order does not matter.
func gradeMatchAnswer(correctJSON, userJSON string) bool {
	want, err := parseMatchPairs(correctJSON)
	if err != nil || len(want) == 0 {
		return false
	}

	got, err := parseMatchPairs(userJSON)
	if err != nil || len(got) != len(want) {
		return false
	}

	for left, right := range want {
		if got[left] != right {
			return false
		}
	}
	return true
}

// parseMatchPairs parses a JSON pair list into a normalized left-to-right map
func parseMatchPairs(raw string) (map[string]string, error) {
	var pairs []models.MatchPair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, err
	}

	pairMap := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pairMap[normalizeAnswer(pair.Left)] = normalizeAnswer(pair.Right)
	}
	return pairMap, nil
}

// parseSceneChoices parses a step's choice list. A nil or empty result
// means the step is narrative-only and is not scored; malformed payloads
// are treated the same way rather than crashing grading.
func parseSceneChoices(raw string) []models.SceneChoice {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var choices []models.SceneChoice
	if err := json.Unmarshal([]byte(raw), &choices); err != nil {
		return nil
	}
	return choices
}

// gradeStepAnswer reports whether the submitted answer matches any choice
// marked correct
func gradeStepAnswer(choices []models.SceneChoice, userAnswer string) bool {
	normalized := normalizeAnswer(userAnswer)
	for _, choice := range choices {
		if choice.IsCorrect && normalizeAnswer(choice.Text) == normalized {
			return true
		}
	}
	return false
}

// correctChoiceText returns the text of the first choice marked correct
func correctChoiceText(choices []models.SceneChoice) string {
	for _, choice := range choices {
		if choice.IsCorrect {
			return choice.Text
		}
	}
	return ""
}

// parseResultDetails decodes a stored detail payload. Unknown or legacy
// shapes yield an empty detail instead of an error; grading then derives
// correctness from the answers that are actually tracked.
func parseResultDetails(raw string) models.ResultDetails {
	var details models.ResultDetails
	if strings.TrimSpace(raw) == "" {
		return details
	}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return models.ResultDetails{}
	}
	return details
}

// summarizeDetails recomputes the aggregate from the full answer set: the
// correct count, the wrong-id list in answer order and whether every
// tracked answer is correct. The stored wrong-id list is never consulted.
func summarizeDetails(details models.ResultDetails) (score int, mistakeIDs []int, allCorrect bool) {
	mistakeIDs = []int{}
	for _, answer := range details.Answers {
		if answer.IsCorrect {
			score++
		} else {
			mistakeIDs = append(mistakeIDs, answer.ItemID)
		}
	}
	return score, mistakeIDs, len(mistakeIDs) == 0
}

// encodeResultDetails serializes a detail payload for storage
func encodeResultDetails(details models.ResultDetails) (string, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
