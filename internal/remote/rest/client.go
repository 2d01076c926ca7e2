package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
)

var _ remote.Service = (*Client)(nil)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Message)
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type Client struct {
	baseURL string
	http    *http.Client
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, v interface{}) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("marshal: %w", err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		serr := &StatusError{Code: resp.StatusCode, Message: body.Error}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s %s: %v: %w", r.method, r.path, serr, rally.ErrNotFound)
		}
		return fmt.Errorf("%s %s: %w", r.method, r.path, serr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out interface{}) error {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// Probe checks that the backend answers at all.
func (c *Client) Probe(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil, nil)
}

func (c *Client) GetEvent(ctx context.Context, id int64) (rally.Event, error) {
	var ev rally.Event
	err := c.get(ctx, "/events/"+strconv.FormatInt(id, 10), nil, &ev)
	return ev, err
}

func (c *Client) GetEventsByStatus(ctx context.Context, statuses ...rally.EventStatus) ([]rally.Event, error) {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	var list []rally.Event
	err := c.get(ctx, "/events", url.Values{"status": {strings.Join(parts, ",")}}, &list)
	return list, err
}

func (c *Client) GetQuestionIDs(ctx context.Context, eventID int64) ([]int64, error) {
	var ids []int64
	err := c.get(ctx, fmt.Sprintf("/events/%d/question-ids", eventID), nil, &ids)
	return ids, err
}

func (c *Client) GetQuestions(ctx context.Context, ids []int64) ([]rally.Question, error) {
	var list []rally.Question
	err := c.get(ctx, "/questions", url.Values{"ids": {formatIDs(ids)}}, &list)
	return list, err
}

func (c *Client) GetAnswers(ctx context.Context, questionIDs []int64) ([]rally.AnswerRecord, error) {
	var list []rally.AnswerRecord
	err := c.get(ctx, "/answers", url.Values{"question_ids": {formatIDs(questionIDs)}}, &list)
	return list, err
}

func (c *Client) GetAnsweredQuestionIDs(ctx context.Context, teamID int64) ([]int64, error) {
	var ids []int64
	err := c.get(ctx, fmt.Sprintf("/teams/%d/answered-question-ids", teamID), nil, &ids)
	return ids, err
}

func (c *Client) InsertAnswer(ctx context.Context, p rally.AnswerPayload) error {
	return c.send(ctx, http.MethodPost, "/team-answers", p, nil)
}

func (c *Client) FindAnswer(ctx context.Context, teamID, questionID int64) (rally.SubmittedAnswer, bool, error) {
	var a rally.SubmittedAnswer
	err := c.get(ctx, "/team-answers", url.Values{
		"team_id":     {strconv.FormatInt(teamID, 10)},
		"question_id": {strconv.FormatInt(questionID, 10)},
	}, &a)
	if errors.Is(err, rally.ErrNotFound) {
		return a, false, nil
	}
	if err != nil {
		return a, false, err
	}
	return a, true, nil
}

func (c *Client) InsertTeam(ctx context.Context, name string, eventID int64) (rally.Team, error) {
	var t rally.Team
	err := c.send(ctx, http.MethodPost, "/teams", teamRequest{Name: name, EventID: eventID}, &t)
	return t, err
}

func (c *Client) TeamExists(ctx context.Context, eventID, teamID int64) (bool, error) {
	var resp existsResponse
	if err := c.get(ctx, fmt.Sprintf("/events/%d/teams/%d", eventID, teamID), nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (c *Client) SetTimePlayed(ctx context.Context, eventID, teamID int64, at time.Time) error {
	path := fmt.Sprintf("/events/%d/teams/%d/time-played", eventID, teamID)
	return c.send(ctx, http.MethodPut, path, timePlayedRequest{TimePlayed: at}, nil)
}

func (c *Client) UploadPhoto(ctx context.Context, teamID, questionID int64, image []byte) (string, error) {
	var resp uploadResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/uploads",
		query: url.Values{
			"team_id":     {strconv.FormatInt(teamID, 10)},
			"question_id": {strconv.FormatInt(questionID, 10)},
		},
		body:        bytes.NewReader(image),
		contentType: "image/jpeg",
	}, &resp)
	return resp.Path, err
}

func (c *Client) GetVotingContent(ctx context.Context, eventID, ownTeamID int64) ([]rally.VotingContent, error) {
	var list []rally.VotingContent
	err := c.send(ctx, http.MethodPost, "/rpc/get_voting_content", votingContentRequest{EventID: eventID, OwnTeamID: ownTeamID}, &list)
	return list, err
}

func (c *Client) IncrementAnswerPoints(ctx context.Context, answerID int64) error {
	return c.send(ctx, http.MethodPost, "/rpc/increment_answer_points", answerIDRequest{AnswerID: answerID}, nil)
}

func (c *Client) GetTotalPointsPerEvent(ctx context.Context, eventID int64) ([]rally.TeamScore, error) {
	var list []rally.TeamScore
	err := c.send(ctx, http.MethodPost, "/rpc/get_total_points_per_event", eventIDRequest{EventID: eventID}, &list)
	return list, err
}
