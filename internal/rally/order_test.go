package rally

import (
	"sort"
	"testing"
)

func sortedIDs(qs []Question) []int64 {
	ids := make([]int64, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestOrderForSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		questions []Question
	}{
		{name: "empty"},
		{
			name:      "only uploads",
			questions: []Question{{ID: 1, Type: QuestionUpload}, {ID: 2, Type: QuestionUpload}},
		},
		{
			name: "mixed",
			questions: []Question{
				{ID: 1, Type: QuestionUpload},
				{ID: 2, Type: QuestionKnowledge},
				{ID: 3, Type: QuestionMultipleChoice},
				{ID: 4, Type: QuestionUpload},
				{ID: 5, Type: QuestionQRCode},
				{ID: 6, Type: QuestionPicture},
				{ID: 7, Type: QuestionKnowledge},
			},
		},
		{
			name:      "duplicate ids",
			questions: []Question{{ID: 9, Type: QuestionKnowledge}, {ID: 9, Type: QuestionKnowledge}, {ID: 9, Type: QuestionUpload}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var uploads int
			for _, q := range tc.questions {
				if q.Type == QuestionUpload {
					uploads++
				}
			}

			for i := 0; i < 50; i++ {
				got := OrderForSession(tc.questions)
				if len(got) != len(tc.questions) {
					t.Fatalf("expected %d questions, got %d", len(tc.questions), len(got))
				}

				want, have := sortedIDs(tc.questions), sortedIDs(got)
				for k := range want {
					if want[k] != have[k] {
						t.Fatalf("id multiset changed: want %v got %v", want, have)
					}
				}

				split := len(got) - uploads
				for k, q := range got {
					if k < split && q.Type == QuestionUpload {
						t.Fatalf("upload question %d at position %d before the upload suffix", q.ID, k)
					}
					if k >= split && q.Type != QuestionUpload {
						t.Fatalf("non-upload question %d inside the upload suffix", q.ID)
					}
				}
			}
		})
	}
}

func TestOrderForSessionDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []Question{{ID: 1, Type: QuestionUpload}, {ID: 2}, {ID: 3}}
	OrderForSession(in)
	if in[0].ID != 1 || in[1].ID != 2 || in[2].ID != 3 {
		t.Errorf("input reordered: %v", in)
	}
}

func TestShuffleVisitsEveryPermutation(t *testing.T) {
	t.Parallel()

	seen := map[[3]int]bool{}
	for i := 0; i < 2000; i++ {
		items := []int{1, 2, 3}
		Shuffle(items)
		seen[[3]int{items[0], items[1], items[2]}] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected all 6 permutations, saw %d", len(seen))
	}
}
