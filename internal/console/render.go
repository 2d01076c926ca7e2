package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/bytespool"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/resource"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/router"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/session"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/strpool"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/util"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/voting"
)

func readPhoto(r io.Reader, fn func(image []byte) error) error {
	return bytespool.With(r, func(b []byte) error {
		if len(b) == 0 {
			return fmt.Errorf("photo is empty")
		}
		return fn(b)
	})
}

// progress counts questions answered before this batch was loaded plus the
// ones passed in it. Tour sessions do not track AnsweredCount.
func progress(st session.State) (answered, total int) {
	if st.AllQuestionsAnswered {
		return st.TotalQuestions, st.TotalQuestions
	}
	return st.TotalQuestions - len(st.Questions) + st.QuestionIndex, st.TotalQuestions
}

// Render draws the screen the router picks for the current session.
func (c *Console) Render(ctx context.Context) string {
	st := c.config.Store.Snapshot()

	switch router.ForSnapshot(st) {
	case router.ScreenLoading:
		return resource.TextLoading
	case router.ScreenQuestion:
		return c.renderQuestion(st)
	case router.ScreenVoting:
		return c.renderVoting(ctx, st)
	case router.ScreenScoreboard:
		return c.renderFinished(ctx, st)
	default:
		return renderJoin(st)
	}
}

func renderJoin(st session.State) string {
	switch {
	case st.TeamDeleted:
		return resource.TextTeamDeleted
	case st.ResumeAvailable:
		return resource.TextResume
	case st.Event != nil && !st.Event.IsTour() && st.Team == nil:
		return "Joined " + st.Event.Name + ". Register your team with " + resource.CmdTeam + " <name>."
	case st.Event != nil:
		return "Joined " + st.Event.Name + ". Type " + resource.CmdStart + " to play."
	default:
		return resource.TextNotJoined
	}
}

func (c *Console) renderQuestion(st session.State) string {
	q, ok := session.CurrentQuestion(st)
	if !ok {
		return resource.TextLoading
	}

	return strpool.Render(func(b *strings.Builder) {
		answered, total := progress(st)
		fmt.Fprintf(b, "%s Question %d/%d (%s)\n", resource.QuestionIcon(q.Type),
			answered+1, total, util.Plural(q.Points, "point", "points"))

		view := router.ViewFor(q)
		if view == router.ViewUnknown {
			b.WriteString(resource.TextUnknownQuestion)
			return
		}

		b.WriteString(q.Text)
		b.WriteByte('\n')

		switch view {
		case router.ViewMultipleChoice:
			for i, opt := range c.config.Store.StableOptions(st) {
				fmt.Fprintf(b, "  %d. %s\n", i+1, opt.Text)
			}
			fmt.Fprintf(b, "Pick one with %s <n>.\n", resource.CmdChoose)
		case router.ViewPhotoUpload:
			fmt.Fprintf(b, "Send a photo with %s <file>.\n", resource.CmdPhoto)
		case router.ViewQRScan:
			fmt.Fprintf(b, "Enter the scanned code with %s <code>.\n", resource.CmdAnswer)
		default:
			fmt.Fprintf(b, "Reply with %s <text>.\n", resource.CmdAnswer)
		}

		if q.Hint != "" && st.UsedHints[q.ID] {
			b.WriteString("Hint: " + q.Hint + "\n")
		}
		if st.Event != nil && st.Event.EndTime != nil {
			fmt.Fprintf(b, "Ends at %s. ", st.Event.EndTime.Local().Format(time.Kitchen))
		}
		fmt.Fprintf(b, "Score: %s", util.Plural(st.Points, "point", "points"))
		if badge := c.syncBadge(); badge != "" {
			b.WriteString(" | " + badge)
		}
	})
}

func (c *Console) renderVoting(ctx context.Context, st session.State) string {
	team := teamID(st)
	if !st.VotingAllowed || team == 0 {
		c.ballot = nil
		return resource.TextNothingToVote
	}

	remaining, err := c.config.Voting.Remaining(ctx, st.Event.ID, team)
	if err != nil {
		logging.FromContext(ctx).Named("console.renderVoting").Warnw("load voting content", "error", err)
		return "Voting content is unavailable, try " + resource.CmdRefresh + "."
	}
	if len(remaining) == 0 {
		c.ballot = nil
		c.config.Store.SetVotingAllowed(false)
		return resource.TextNothingToVote
	}

	// One question at a time, like a voting card.
	question := remaining[0].QuestionID
	c.ballot = c.ballot[:0]
	for _, item := range remaining {
		if item.QuestionID == question {
			c.ballot = append(c.ballot, item)
		}
	}

	return strpool.Render(func(b *strings.Builder) {
		fmt.Fprintf(b, "%s Vote: %s\n", resource.QuestionIcon(c.ballot[0].QuestionType), c.ballot[0].QuestionText)
		for i, item := range c.ballot {
			fmt.Fprintf(b, "  %d. %s: %s\n", i+1, item.TeamName, item.TeamAnswer)
		}
		fmt.Fprintf(b, "Vote with %s <n>.", resource.CmdVote)
	})
}

func (c *Console) renderFinished(ctx context.Context, st session.State) string {
	text := resource.TextFinished
	if st.TimeExpired && !st.AllQuestionsAnswered {
		text = resource.TextTimeUp
	}
	if st.Event == nil || (st.Event.Status != rally.EventStatusEnded && st.Event.Status != rally.EventStatusRanking) {
		return text
	}

	board, err := c.config.Voting.Scoreboard(ctx, st.Event.ID)
	if err != nil {
		logging.FromContext(ctx).Named("console.renderFinished").Warnw("load scoreboard", "error", err)
		return text
	}
	return text + "\n" + renderScoreboard(board, teamID(st))
}

func renderEvents(events []rally.Event) string {
	if len(events) == 0 {
		return "No running events."
	}
	return strpool.Render(func(b *strings.Builder) {
		for _, ev := range events {
			mode := "team"
			if ev.IsTour() {
				mode = "tour"
			}
			lock := ""
			if ev.Password != "" {
				lock = " (password)"
			}
			fmt.Fprintf(b, "%4d  %s [%s]%s\n", ev.ID, ev.Name, mode, lock)
		}
	})
}

func renderScoreboard(board []voting.Rank, ownTeamID int64) string {
	if len(board) == 0 {
		return "No scores yet."
	}
	return strpool.Render(func(b *strings.Builder) {
		for _, r := range board {
			marker := ""
			if r.TeamID == ownTeamID {
				marker = "  <- you"
			}
			fmt.Fprintf(b, "%s %2d. %s  %s%s\n", resource.Medal(r.Rank), r.Rank, r.TeamName,
				util.Plural(r.Points, "point", "points"), marker)
		}
	})
}

func renderStatus(st session.State, badge string) string {
	return strpool.Render(func(b *strings.Builder) {
		if st.Event != nil {
			fmt.Fprintf(b, "Event: %s (%s)\n", st.Event.Name, st.Event.Status)
		}
		if st.Team != nil {
			fmt.Fprintf(b, "Team: %s\n", st.Team.Name)
		}
		answered, total := progress(st)
		fmt.Fprintf(b, "State: %s, %d/%d answered, %s\n", session.SessionState(st),
			answered, total, util.Plural(st.Points, "point", "points"))
		if badge != "" {
			b.WriteString(badge)
		}
	})
}
