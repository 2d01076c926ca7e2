package memory

import (
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

// Seed loads a small demo campus: one running team rally, one tour and one
// rally that is still being prepared. It returns the team rally.
func Seed(b *Backend, now time.Time) rally.Event {
	end := now.Add(2 * time.Hour)
	ev := b.AddEvent(rally.Event{
		Name:    "Campus Rally",
		Status:  rally.EventStatusRunning,
		Mode:    rally.EventModeTeam,
		EndTime: &end,
	})

	b.AddQuestion(ev.ID, rally.Question{
		Text: "Which building houses the library?", Type: rally.QuestionKnowledge, Points: 2, Hint: "Look for the big clock.",
	}, rally.AnswerRecord{Text: "Building A", Correct: true})

	b.AddQuestion(ev.ID, rally.Question{
		Text: "How many floors does the main building have?", Type: rally.QuestionMultipleChoice, Points: 3,
	},
		rally.AnswerRecord{Text: "3"},
		rally.AnswerRecord{Text: "4", Correct: true},
		rally.AnswerRecord{Text: "5"},
		rally.AnswerRecord{Text: "6"},
	)

	b.AddQuestion(ev.ID, rally.Question{
		Text: "Scan the QR code at the cafeteria entrance.", Type: rally.QuestionQRCode, Points: 3,
	}, rally.AnswerRecord{Text: "MENSA-2024", Correct: true})

	b.AddQuestion(ev.ID, rally.Question{
		Text: "What is shown on the mural in the hallway?", Type: rally.QuestionPicture, Points: 2,
	}, rally.AnswerRecord{Text: "Owl", Correct: true})

	b.AddQuestion(ev.ID, rally.Question{
		Text: "Take a team photo in front of the main entrance.", Type: rally.QuestionUpload, Points: 4,
	})

	tour := b.AddEvent(rally.Event{
		Name:   "Campus Tour",
		Status: rally.EventStatusRunning,
		Mode:   rally.EventModeTour,
	})
	b.AddQuestion(tour.ID, rally.Question{
		Text: "Where is the student office?", Type: rally.QuestionKnowledge, Points: 1,
	}, rally.AnswerRecord{Text: "Room 101", Correct: true})

	b.AddEvent(rally.Event{
		Name:     "Freshers Rally",
		Status:   rally.EventStatusPreparing,
		Mode:     rally.EventModeTeam,
		Password: "welcome",
	})

	return ev
}
