// Package router maps the session to the screen that should be mounted.
package router

import (
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/session"
)

type Screen string

const (
	ScreenLoading    Screen = "loading"
	ScreenJoin       Screen = "join"
	ScreenQuestion   Screen = "question"
	ScreenVoting     Screen = "voting"
	ScreenScoreboard Screen = "scoreboard"
)

// Route is total over the session states; anything unknown lands on the
// join screen.
func Route(state rally.SessionState) Screen {
	switch state {
	case rally.SessionPlaying:
		return ScreenQuestion
	case rally.SessionVoting:
		return ScreenVoting
	case rally.SessionFinished:
		return ScreenScoreboard
	default:
		return ScreenJoin
	}
}

// ForSnapshot holds the loading screen until the session is hydrated.
func ForSnapshot(st session.State) Screen {
	if !st.Hydrated {
		return ScreenLoading
	}
	return Route(session.SessionState(st))
}

// QuestionView is how the question screen renders the current question.
type QuestionView string

const (
	ViewTextInput      QuestionView = "text_input"
	ViewMultipleChoice QuestionView = "multiple_choice"
	ViewQRScan         QuestionView = "qr_scan"
	ViewPhotoUpload    QuestionView = "photo_upload"
	// ViewUnknown offers only a skip action so malformed content cannot
	// block the session.
	ViewUnknown QuestionView = "unknown"
)

func ViewFor(q rally.Question) QuestionView {
	switch q.Type {
	case rally.QuestionKnowledge, rally.QuestionPicture:
		return ViewTextInput
	case rally.QuestionMultipleChoice:
		return ViewMultipleChoice
	case rally.QuestionQRCode:
		return ViewQRScan
	case rally.QuestionUpload:
		return ViewPhotoUpload
	default:
		return ViewUnknown
	}
}
