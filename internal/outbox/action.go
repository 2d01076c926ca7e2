package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/google/uuid"
)

type ActionType string

const (
	ActionSaveAnswer    ActionType = "SAVE_ANSWER"
	ActionSetTimePlayed ActionType = "SET_TIME_PLAYED"
)

// PayloadVersion is the version of the canonical queue record.
const PayloadVersion = 1

// Action is one write intent waiting for delivery.
type Action struct {
	ID             string          `json:"id"`
	Type           ActionType      `json:"type"`
	PayloadVersion int             `json:"payloadVersion"`
	CreatedAt      time.Time       `json:"createdAt"`
	Attempts       int             `json:"attempts"`
	NextRetryAt    *time.Time      `json:"nextRetryAt"`
	Payload        json.RawMessage `json:"payload"`
	LastError      string          `json:"lastError,omitempty"`
}

// Due reports whether the action may be attempted at now.
func (a Action) Due(now time.Time) bool {
	return a.NextRetryAt == nil || !a.NextRetryAt.After(now)
}

type TimePlayedPayload struct {
	EventID    int64     `json:"event_id"`
	TeamID     int64     `json:"team_id"`
	TimePlayed time.Time `json:"time_played"`
}

func newAction(typ ActionType, payload interface{}, now time.Time) (Action, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Action{
		ID:             uuid.NewString(),
		Type:           typ,
		PayloadVersion: PayloadVersion,
		CreatedAt:      now,
		Payload:        raw,
	}, nil
}

// AnswerPayload decodes the payload of a SAVE_ANSWER action.
func (a Action) AnswerPayload() (rally.AnswerPayload, error) {
	var p rally.AnswerPayload
	if a.Type != ActionSaveAnswer {
		return p, fmt.Errorf("action %s is %s", a.ID, a.Type)
	}
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal answer payload: %w", err)
	}
	return p, nil
}

func (a Action) TimePlayedPayload() (TimePlayedPayload, error) {
	var p TimePlayedPayload
	if a.Type != ActionSetTimePlayed {
		return p, fmt.Errorf("action %s is %s", a.ID, a.Type)
	}
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return p, fmt.Errorf("unmarshal time played payload: %w", err)
	}
	return p, nil
}
