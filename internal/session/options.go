package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

func optionKey(questionID int64, options []rally.AnswerRecord) string {
	ids := make([]int64, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%d:", questionID)
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// StableOptions is MultipleChoiceOptions with an ordering that stays the same
// for a question until its option set changes or the session is reset.
func (s *Store) StableOptions(st State) []rally.AnswerRecord {
	options := MultipleChoiceOptions(st)
	if s.config.Options == nil || len(options) == 0 {
		return options
	}

	q, _ := CurrentQuestion(st)
	key := optionKey(q.ID, options)
	if v, ok := s.config.Options.Get(key); ok {
		return append([]rally.AnswerRecord(nil), v.([]rally.AnswerRecord)...)
	}

	s.config.Options.Add(key, append([]rally.AnswerRecord(nil), options...))
	return options
}
