package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/google/uuid"
)

const legacyInsertAnswer = "insertAnswer"

var errCorruptQueue = errors.New("stored queue is not a list")

// record is any historical shape of a queue element.
type record struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	PayloadVersion int             `json:"payloadVersion"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	Attempts       int             `json:"attempts"`
	NextRetryAt    json.RawMessage `json:"nextRetryAt"`
	Payload        json.RawMessage `json:"payload"`
	Data           json.RawMessage `json:"data"`
	LastError      string          `json:"lastError"`

	// bare answer payloads were queued as-is
	TeamID *int64 `json:"team_id"`
}

// answerFields accepts both the snake_case and the camelCase answer shape.
type answerFields struct {
	TeamID          *int64 `json:"team_id"`
	QuestionID      *int64 `json:"question_id"`
	TeamAnswer      string `json:"team_answer"`
	TeamIDCamel     *int64 `json:"teamId"`
	QuestionIDCamel *int64 `json:"questionId"`
	TeamAnswerCamel string `json:"teamAnswer"`
	Correct         bool   `json:"correct"`
	Points          int    `json:"points"`
}

func (f answerFields) payload() (rally.AnswerPayload, error) {
	p := rally.AnswerPayload{Correct: f.Correct, Points: f.Points, TeamAnswer: f.TeamAnswer}

	switch {
	case f.TeamID != nil:
		p.TeamID = *f.TeamID
	case f.TeamIDCamel != nil:
		p.TeamID = *f.TeamIDCamel
	default:
		return p, fmt.Errorf("answer payload without team id")
	}

	switch {
	case f.QuestionID != nil:
		p.QuestionID = *f.QuestionID
	case f.QuestionIDCamel != nil:
		p.QuestionID = *f.QuestionIDCamel
	default:
		return p, fmt.Errorf("answer payload without question id")
	}

	if p.TeamAnswer == "" {
		p.TeamAnswer = f.TeamAnswerCamel
	}

	return p, nil
}

func normalizeAnswer(raw json.RawMessage) (json.RawMessage, error) {
	var f answerFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal answer: %w", err)
	}
	p, err := f.payload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// parseTime accepts RFC 3339 strings and unix milliseconds.
func parseTime(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", s, err)
		}
		return &t, nil
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse time %s: %w", raw, err)
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}

// migrateRecord turns one queue element into the canonical action. The bool
// is true when the stored form differs from the canonical one.
func migrateRecord(raw json.RawMessage, now time.Time) (Action, bool, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Action{}, false, fmt.Errorf("unmarshal record: %w", err)
	}

	if r.PayloadVersion == PayloadVersion {
		var a Action
		if err := json.Unmarshal(raw, &a); err != nil {
			return Action{}, false, fmt.Errorf("unmarshal action: %w", err)
		}
		return a, false, nil
	}

	a := Action{
		ID:             r.ID,
		Type:           ActionSaveAnswer,
		PayloadVersion: PayloadVersion,
		CreatedAt:      now,
		Attempts:       r.Attempts,
		LastError:      r.LastError,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return Action{}, false, err
	}
	if createdAt != nil {
		a.CreatedAt = *createdAt
	}
	if a.NextRetryAt, err = parseTime(r.NextRetryAt); err != nil {
		return Action{}, false, err
	}

	var payload json.RawMessage
	switch {
	case r.Type == "" && r.TeamID != nil:
		payload = raw
	case r.Type == legacyInsertAnswer:
		payload = r.Data
	case r.Type == string(ActionSaveAnswer):
		payload = r.Payload
	default:
		return Action{}, false, fmt.Errorf("unknown record type %q", r.Type)
	}

	if a.Payload, err = normalizeAnswer(payload); err != nil {
		return Action{}, false, err
	}

	return a, true, nil
}

// migrate decodes a stored queue, normalizing every legacy element. Elements
// that cannot be interpreted are dropped and reported in skipped.
func migrate(raw []byte, now time.Time) (actions []Action, changed bool, skipped []error, err error) {
	if len(raw) == 0 {
		return nil, false, nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false, nil, fmt.Errorf("%w: %v", errCorruptQueue, err)
	}

	actions = make([]Action, 0, len(elems))
	for i, elem := range elems {
		a, migrated, err := migrateRecord(elem, now)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("element %d: %w", i, err))
			changed = true
			continue
		}
		changed = changed || migrated
		actions = append(actions, a)
	}

	return actions, changed, skipped, nil
}
