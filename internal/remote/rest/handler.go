// Package rest carries the backend contract over JSON/HTTP: Handler serves
// any remote.Service, Client consumes one.
package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc    remote.Service
	logger *zap.SugaredLogger
}

func NewHandler(svc remote.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type teamRequest struct {
	Name    string `json:"name"`
	EventID int64  `json:"event_id"`
}

type timePlayedRequest struct {
	TimePlayed time.Time `json:"time_played"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type uploadResponse struct {
	Path string `json:"path"`
}

type votingContentRequest struct {
	EventID   int64 `json:"event_id"`
	OwnTeamID int64 `json:"own_team_id"`
}

type answerIDRequest struct {
	AnswerID int64 `json:"answer_id"`
}

type eventIDRequest struct {
	EventID int64 `json:"event_id"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/events", h.eventsByStatus)
	r.Get("/events/{eventID}", h.event)
	r.Get("/events/{eventID}/question-ids", h.questionIDs)
	r.Get("/events/{eventID}/teams/{teamID}", h.teamExists)
	r.Put("/events/{eventID}/teams/{teamID}/time-played", h.timePlayed)

	r.Get("/questions", h.questions)
	r.Get("/answers", h.answers)

	r.Post("/teams", h.insertTeam)
	r.Get("/teams/{teamID}/answered-question-ids", h.answeredQuestionIDs)

	r.Post("/team-answers", h.insertAnswer)
	r.Get("/team-answers", h.findAnswer)

	r.Post("/uploads", h.upload)

	r.Post("/rpc/get_voting_content", h.votingContent)
	r.Post("/rpc/increment_answer_points", h.incrementAnswerPoints)
	r.Post("/rpc/get_total_points_per_event", h.totalPoints)

	return r
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, rally.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}

func (h *Handler) event(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	ev, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) eventsByStatus(w http.ResponseWriter, r *http.Request) {
	var statuses []rally.EventStatus
	for _, s := range strings.Split(r.URL.Query().Get("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, rally.EventStatus(s))
		}
	}
	list, err := h.svc.GetEventsByStatus(r.Context(), statuses...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []rally.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) questionIDs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	ids, err := h.svc.GetQuestionIDs(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) questions(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.GetQuestions(r.Context(), ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []rally.Question{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) answers(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("question_ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.GetAnswers(r.Context(), ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []rally.AnswerRecord{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) answeredQuestionIDs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	ids, err := h.svc.GetAnsweredQuestionIDs(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) insertAnswer(w http.ResponseWriter, r *http.Request) {
	var p rally.AnswerPayload
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.InsertAnswer(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) findAnswer(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryID(r, "team_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}
	questionID, err := queryID(r, "question_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question_id")
		return
	}
	a, ok, err := h.svc.FindAnswer(r.Context(), teamID, questionID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "answer not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) insertTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	team, err := h.svc.InsertTeam(r.Context(), req.Name, req.EventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *Handler) teamExists(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	teamID, err := pathID(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	ok, err := h.svc.TeamExists(r.Context(), eventID, teamID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, existsResponse{Exists: ok})
}

func (h *Handler) timePlayed(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	teamID, err := pathID(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var req timePlayedRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.SetTimePlayed(r.Context(), eventID, teamID, req.TimePlayed); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryID(r, "team_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}
	questionID, err := queryID(r, "question_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question_id")
		return
	}
	defer r.Body.Close()
	image, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload")
		return
	}
	if len(image) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	path, err := h.svc.UploadPhoto(r.Context(), teamID, questionID, image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Path: path})
}

func (h *Handler) votingContent(w http.ResponseWriter, r *http.Request) {
	var req votingContentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	list, err := h.svc.GetVotingContent(r.Context(), req.EventID, req.OwnTeamID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []rally.VotingContent{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) incrementAnswerPoints(w http.ResponseWriter, r *http.Request) {
	var req answerIDRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.IncrementAnswerPoints(r.Context(), req.AnswerID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) totalPoints(w http.ResponseWriter, r *http.Request) {
	var req eventIDRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	list, err := h.svc.GetTotalPointsPerEvent(r.Context(), req.EventID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []rally.TeamScore{}
	}
	writeJSON(w, http.StatusOK, list)
}
