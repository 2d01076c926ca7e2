// Package console is the command interpreter of the terminal client. Every
// command maps onto one session, submission or voting operation; the screen
// shown after it is chosen by the router.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/outbox"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/resource"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/session"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/submit"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/voting"
)

var (
	ErrQuit           = errors.New("quit")
	errUsage          = errors.New("usage")
	errNoQuestion     = errors.New("no question to answer")
	errWrongQuestion  = errors.New("command does not fit the current question")
	errNotVoting      = errors.New("voting is not open")
	errUnknownCommand = errors.New("unknown command, type " + resource.CmdHelp)
)

type Connectivity interface {
	Online() bool
}

type Config struct {
	Store  *session.Store
	Submit *submit.Workflow
	Voting *voting.Service
	Outbox *outbox.Outbox
	Net    Connectivity

	// Foreground receives a signal whenever the user asks for a sync.
	Foreground chan<- struct{}
	OpenFile   func(name string) (io.ReadCloser, error)
}

func New(config Config) *Console {
	if config.OpenFile == nil {
		config.OpenFile = func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		}
	}
	return &Console{config: config}
}

type Console struct {
	config Config

	// ballot is the voting content last shown, numbered from 1.
	ballot []rally.VotingContent
}

type handlerFn func(ctx context.Context, args []string) (string, error)

func (c *Console) handlers() map[string]handlerFn {
	return map[string]handlerFn{
		resource.CmdHelp:         func(context.Context, []string) (string, error) { return resource.Help, nil },
		resource.CmdEvents:       c.handleEvents,
		resource.CmdOrganization: c.handleOrganization,
		resource.CmdDepartment:   c.handleDepartment,
		resource.CmdJoin:         c.handleJoin,
		resource.CmdTeam:         c.handleTeam,
		resource.CmdStart:        c.handleStart,
		resource.CmdAnswer:       c.handleAnswer,
		resource.CmdChoose:       c.handleChoose,
		resource.CmdPhoto:        c.handlePhoto,
		resource.CmdHint:         c.handleHint,
		resource.CmdSkip:         c.handleSkip,
		resource.CmdVote:         c.handleVote,
		resource.CmdScores:       c.handleScores,
		resource.CmdRefresh:      c.handleRefresh,
		resource.CmdSync:         c.handleSync,
		resource.CmdStatus:       c.handleStatus,
		resource.CmdLeave:        c.handleLeave,
		resource.CmdQuit:         func(context.Context, []string) (string, error) { return "", ErrQuit },
	}
}

// Execute runs one input line and returns what to print.
func (c *Console) Execute(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	handler, ok := c.handlers()[strings.ToLower(fields[0])]
	if !ok {
		return "", errUnknownCommand
	}

	return handler(ctx, fields[1:])
}

func teamID(st session.State) int64 {
	if st.Team == nil || st.TourMode() {
		return 0
	}
	return st.Team.ID
}

func parseIndex(args []string, n int) (int, error) {
	i := 0
	if len(args) == 1 {
		i, _ = strconv.Atoi(args[0])
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("%w: pick a number between 1 and %d", errUsage, n)
	}
	return i - 1, nil
}

func (c *Console) handleEvents(ctx context.Context, _ []string) (string, error) {
	events, err := c.config.Store.ListJoinable(ctx)
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}
	return renderEvents(events), nil
}

func parseNamed(args []string, cmd string) (int64, string, error) {
	if len(args) < 2 {
		return 0, "", fmt.Errorf("%w: %s <id> <name>", errUsage, cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid id %q", args[0])
	}
	return id, strings.Join(args[1:], " "), nil
}

func (c *Console) handleOrganization(ctx context.Context, args []string) (string, error) {
	id, name, err := parseNamed(args, resource.CmdOrganization)
	if err != nil {
		return "", err
	}
	if err := c.config.Store.SelectOrganization(ctx, rally.Organization{ID: id, Name: name}); err != nil {
		return "", err
	}
	return "Organization set to " + name + ".", nil
}

func (c *Console) handleDepartment(ctx context.Context, args []string) (string, error) {
	id, name, err := parseNamed(args, resource.CmdDepartment)
	if err != nil {
		return "", err
	}

	dep := rally.Department{ID: id, Name: name}
	if sel, err := c.config.Store.Selection(ctx); err == nil && sel.Organization != nil {
		dep.OrganizationID = sel.Organization.ID
	}
	if err := c.config.Store.SelectDepartment(ctx, dep); err != nil {
		return "", err
	}
	return "Showing events of " + dep.Name + ".", nil
}

func (c *Console) handleJoin(ctx context.Context, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", fmt.Errorf("%w: %s <event id> [password]", errUsage, resource.CmdJoin)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid event id %q", args[0])
	}
	var password string
	if len(args) == 2 {
		password = args[1]
	}

	ev, err := c.config.Store.JoinEvent(ctx, id, password)
	if err != nil {
		return "", err
	}

	if ev.IsTour() {
		return "Joined " + ev.Name + ". Type " + resource.CmdStart + " to explore.", nil
	}
	if c.config.Store.Snapshot().Team != nil {
		return "Joined " + ev.Name + ". " + resource.TextResume, nil
	}
	return "Joined " + ev.Name + ". Register your team with " + resource.CmdTeam + " <name>.", nil
}

func (c *Console) handleTeam(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s <name>", errUsage, resource.CmdTeam)
	}
	team, err := c.config.Store.CreateTeam(ctx, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	return "Team " + team.Name + " registered. Type " + resource.CmdStart + " to play.", nil
}

func (c *Console) handleStart(ctx context.Context, _ []string) (string, error) {
	st := c.config.Store.Snapshot()
	switch {
	case st.Event == nil:
		return "", session.ErrNoEvent
	case !st.Event.IsTour() && st.Team == nil:
		return "", session.ErrNoTeam
	}

	if err := c.config.Store.LoadQuestions(ctx); err != nil {
		return "", fmt.Errorf("load questions: %w", err)
	}
	if err := c.config.Store.Start(); err != nil {
		return "", err
	}
	return "", nil
}

func (c *Console) current() (session.State, rally.Question, error) {
	st := c.config.Store.Snapshot()
	if session.SessionState(st) != rally.SessionPlaying {
		return st, rally.Question{}, errNoQuestion
	}
	q, ok := session.CurrentQuestion(st)
	if !ok {
		return st, rally.Question{}, errNoQuestion
	}
	return st, q, nil
}

func outcome(correct bool, res submit.Result) string {
	text := resource.TextWrong
	if correct {
		text = resource.TextCorrect
	}
	return text + " " + resource.ResultBadge(res)
}

func (c *Console) handleAnswer(ctx context.Context, args []string) (string, error) {
	st, q, err := c.current()
	if err != nil {
		return "", err
	}
	if !q.Type.FreeText() {
		return "", errWrongQuestion
	}
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s <text>", errUsage, resource.CmdAnswer)
	}

	key, ok := session.CurrentAnswerKey(st)
	if !ok {
		return resource.TextNoAnswerKey, nil
	}

	text := strings.Join(args, " ")
	correct := submit.CheckAnswer(key, text)
	res, err := c.config.Submit.SubmitAnswer(ctx, submit.Answer{
		TeamID:     teamID(st),
		QuestionID: q.ID,
		Correct:    correct,
		Points:     q.Points,
		Text:       text,
	})
	if res == "" {
		return "", err
	}

	return outcome(correct, res), err
}

func (c *Console) handleChoose(ctx context.Context, args []string) (string, error) {
	st, q, err := c.current()
	if err != nil {
		return "", err
	}
	if q.Type != rally.QuestionMultipleChoice {
		return "", errWrongQuestion
	}

	options := c.config.Store.StableOptions(st)
	if len(options) == 0 {
		return resource.TextNoAnswerKey, nil
	}
	i, err := parseIndex(args, len(options))
	if err != nil {
		return "", err
	}

	choice := options[i]
	res, err := c.config.Submit.SubmitAnswer(ctx, submit.Answer{
		TeamID:     teamID(st),
		QuestionID: q.ID,
		Correct:    choice.Correct,
		Points:     q.Points,
		Text:       choice.Text,
	})
	if res == "" {
		return "", err
	}

	return outcome(choice.Correct, res), err
}

func (c *Console) handlePhoto(ctx context.Context, args []string) (string, error) {
	st, q, err := c.current()
	if err != nil {
		return "", err
	}
	if q.Type != rally.QuestionUpload {
		return "", errWrongQuestion
	}
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s <file>", errUsage, resource.CmdPhoto)
	}

	f, err := c.config.OpenFile(args[0])
	if err != nil {
		return "", fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	var res submit.Result
	if err := readPhoto(f, func(image []byte) error {
		res, err = c.config.Submit.SubmitPhotoAnswer(ctx, submit.Photo{
			TeamID:     teamID(st),
			QuestionID: q.ID,
			Points:     q.Points,
			Image:      image,
		})
		return err
	}); err != nil {
		return "", err
	}

	return resource.ResultBadge(res), nil
}

func (c *Console) handleHint(_ context.Context, _ []string) (string, error) {
	_, q, err := c.current()
	if err != nil {
		return "", err
	}
	if q.Hint == "" {
		return resource.TextNoHint, nil
	}
	c.config.Store.UseHint(q.ID)
	return "Hint: " + q.Hint, nil
}

func (c *Console) handleSkip(ctx context.Context, _ []string) (string, error) {
	st, q, err := c.current()
	if err != nil {
		return "", err
	}
	res, err := c.config.Submit.Surrender(ctx, teamID(st), q.ID)
	if res == "" {
		return "", err
	}
	return resource.TextSkipped + " " + resource.ResultBadge(res), err
}

func (c *Console) handleVote(ctx context.Context, args []string) (string, error) {
	st := c.config.Store.Snapshot()
	if session.SessionState(st) != rally.SessionVoting || !st.VotingAllowed || teamID(st) == 0 {
		return "", errNotVoting
	}
	if len(c.ballot) == 0 {
		return resource.TextNothingToVote, nil
	}

	i, err := parseIndex(args, len(c.ballot))
	if err != nil {
		return "", err
	}
	if err := c.config.Voting.Vote(ctx, st.Event.ID, teamID(st), c.ballot[i]); err != nil {
		return "", err
	}

	return resource.TextVoted, nil
}

func (c *Console) handleScores(ctx context.Context, _ []string) (string, error) {
	st := c.config.Store.Snapshot()
	if st.Event == nil {
		return "", session.ErrNoEvent
	}
	board, err := c.config.Voting.Scoreboard(ctx, st.Event.ID)
	if err != nil {
		return "", fmt.Errorf("scoreboard: %w", err)
	}
	return renderScoreboard(board, teamID(st)), nil
}

func (c *Console) handleRefresh(ctx context.Context, _ []string) (string, error) {
	if _, err := c.config.Store.RefreshEvent(ctx); err != nil {
		return "", err
	}

	st := c.config.Store.Snapshot()
	if st.Enabled && (len(st.Questions) == 0 || len(st.Answers) == 0) && !st.AllQuestionsAnswered {
		if err := c.config.Store.LoadQuestions(ctx); err != nil {
			return "", fmt.Errorf("load questions: %w", err)
		}
	}
	return "", nil
}

func (c *Console) handleSync(_ context.Context, _ []string) (string, error) {
	if c.config.Foreground != nil {
		select {
		case c.config.Foreground <- struct{}{}:
		default:
		}
	}
	return "Sync requested.", nil
}

func (c *Console) handleStatus(_ context.Context, _ []string) (string, error) {
	return renderStatus(c.config.Store.Snapshot(), c.syncBadge()), nil
}

func (c *Console) handleLeave(ctx context.Context, _ []string) (string, error) {
	c.ballot = nil
	if err := c.config.Store.LeaveEvent(ctx); err != nil {
		return resource.TextLeft, err
	}
	return resource.TextLeft, nil
}

func (c *Console) syncBadge() string {
	if c.config.Outbox == nil {
		return ""
	}
	st := c.config.Outbox.Status()
	online := st.Online
	if c.config.Net != nil {
		online = c.config.Net.Online()
	}
	return resource.SyncBadge(online, st.Syncing, st.QueueCount)
}
