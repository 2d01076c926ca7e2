package resource

import (
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/submit"
	"github.com/enescakir/emoji"
)

var questionIcons = map[rally.QuestionType]string{
	rally.QuestionKnowledge:      emoji.Pen.String(),
	rally.QuestionMultipleChoice: emoji.CardIndex.String(),
	rally.QuestionQRCode:         emoji.Bookmark.String(),
	rally.QuestionPicture:        emoji.Rainbow.String(),
	rally.QuestionUpload:         emoji.Cinema.String(),
}

func QuestionIcon(t rally.QuestionType) string {
	if icon, ok := questionIcons[t]; ok {
		return icon
	}
	return emoji.Robot.String()
}

var resultBadges = map[submit.Result]string{
	submit.ResultSent:           emoji.CheckMark.String() + " saved",
	submit.ResultQueued:         emoji.Stopwatch.String() + " saved offline, will sync",
	submit.ResultLocal:          emoji.Joystick.String() + " tour mode",
	submit.ResultRequiresOnline: emoji.BrokenHeart.String() + " photo uploads need a connection, try again once online",
}

func ResultBadge(r submit.Result) string {
	return resultBadges[r]
}

// SyncBadge summarizes the outbox for the status line.
func SyncBadge(online, syncing bool, queued int) string {
	switch {
	case !online:
		return emoji.CrossMark.String() + " offline"
	case syncing:
		return emoji.Gear.String() + " syncing"
	case queued > 0:
		return emoji.Stopwatch.String() + " waiting to sync"
	default:
		return emoji.CheckMark.String() + " synced"
	}
}

// Medal returns the medal of the first three ranks.
func Medal(rank int) string {
	switch rank {
	case 1:
		return emoji.FirstPlaceMedal.String()
	case 2:
		return emoji.SecondPlaceMedal.String()
	case 3:
		return emoji.ThirdPlaceMedal.String()
	default:
		return emoji.SportsMedal.String()
	}
}
