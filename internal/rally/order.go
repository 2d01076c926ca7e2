package rally

import "github.com/valyala/fastrand"

// Shuffle permutes items in place, uniformly over all permutations.
func Shuffle[T any](items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		items[i], items[j] = items[j], items[i]
	}
}

// OrderForSession returns a new slice with the questions shuffled and every
// upload question moved behind the rest. Uploads need the camera and the
// network, so they must not hold up the quick questions.
func OrderForSession(questions []Question) []Question {
	var quick, uploads []Question
	for _, q := range questions {
		if q.Type == QuestionUpload {
			uploads = append(uploads, q)
			continue
		}
		quick = append(quick, q)
	}

	Shuffle(quick)
	Shuffle(uploads)

	ordered := make([]Question, 0, len(questions))
	ordered = append(ordered, quick...)
	return append(ordered, uploads...)
}
