package security

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// SecurityQuestionOption is one entry of the curated question catalog.
type SecurityQuestionOption struct {
	ID   int
	Text string
}

// securityQuestions is the fixed catalog. IDs are stable and persisted,
// so entries must never be renumbered or removed.
var securityQuestions = []SecurityQuestionOption{
	{ID: 1, Text: "What was the name of your first pet?"},
	{ID: 2, Text: "What is the name of the street you grew up on?"},
	{ID: 3, Text: "What was the model of your first car?"},
	{ID: 4, Text: "What is your mother's maiden name?"},
	{ID: 5, Text: "What city were you born in?"},
	{ID: 6, Text: "What was the name of your elementary school?"},
	{ID: 7, Text: "What is the name of your favorite childhood teacher?"},
}

// SecurityQuestions returns the catalog in presentation order.
func SecurityQuestions() []SecurityQuestionOption {
	out := make([]SecurityQuestionOption, len(securityQuestions))
	copy(out, securityQuestions)
	return out
}

// QuestionText resolves a question ID to its text. The second return is
// false for unknown IDs.
func QuestionText(id int) (string, bool) {
	for _, q := range securityQuestions {
		if q.ID == id {
			return q.Text, true
		}
	}
	return "", false
}

// ValidQuestionID reports whether the ID exists in the catalog.
func ValidQuestionID(id int) bool {
	_, ok := QuestionText(id)
	return ok
}

// DecoyQuestionID deterministically picks a catalog question for an
// unknown username. The same username always maps to the same question,
// so repeated probes cannot distinguish decoy flows from real ones.
func DecoyQuestionID(username string) int {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(username))))
	return securityQuestions[int(h.Sum32())%len(securityQuestions)].ID
}

// NormalizeAnswer canonicalizes a security answer before hashing or
// comparison: surrounding whitespace is dropped, interior runs of
// whitespace collapse to a single space, and letters are lowercased.
func NormalizeAnswer(answer string) string {
	fields := strings.Fields(answer)
	return strings.ToLower(strings.Join(fields, " "))
}

// TrivialAnswer reports whether a normalized answer is too guessable to
// accept: too short, a single repeated character, or echoing the
// question it answers.
func TrivialAnswer(normalized, questionText string) bool {
	if len([]rune(normalized)) < 3 {
		return true
	}

	uniform := true
	var first rune
	for i, r := range normalized {
		if i == 0 {
			first = r
			continue
		}
		if r != first && !unicode.IsSpace(r) {
			uniform = false
			break
		}
	}
	if uniform {
		return true
	}

	question := strings.ToLower(questionText)
	return strings.Contains(question, normalized)
}
