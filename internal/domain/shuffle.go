package domain

import "math/rand"

// Shuffle derives the per-request presentation of a question: option texts
// in a uniformly random order, each tagged with its original slot letter.
// The randomness source is injected so tests can assert exact permutations.
//
// Empty slots (questions may carry fewer than four authored distractors)
// are dropped from the presented list after shuffling; the canonical option
// always survives because Validate requires it.
func Shuffle(q Question, rnd *rand.Rand) (PresentedQuestion, error) {
	if err := q.Validate(); err != nil {
		return PresentedQuestion{}, err
	}

	perm := rnd.Perm(OptionCount)
	options := make([]PresentedOption, 0, OptionCount)
	for _, slot := range perm {
		if q.Options[slot] == "" {
			continue
		}
		options = append(options, PresentedOption{
			Label: Labels[slot],
			Text:  q.Options[slot],
		})
	}

	return PresentedQuestion{
		QuestionID: q.ID,
		Headword:   q.Headword,
		Definition: q.Definition,
		Example:    q.Example,
		Options:    options,
	}, nil
}

// ValidLabel reports whether s is one of the four slot letters.
func ValidLabel(s string) bool {
	for _, l := range Labels {
		if s == l {
			return true
		}
	}
	return false
}
