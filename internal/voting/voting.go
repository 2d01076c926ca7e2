// Package voting runs the peer voting phase and builds the scoreboard.
package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/logging"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/remote"
)

var (
	ErrAlreadyVoted = errors.New("already voted on question")
	ErrOwnAnswer    = errors.New("cannot vote for own answer")
)

type KV interface {
	Get(ctx context.Context, key string, v interface{}) error
	Set(ctx context.Context, key string, v interface{}) error
}

type Config struct {
	Remote         remote.Service
	KV             KV
	RequestTimeout time.Duration
}

func New(config Config) *Service {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}
	return &Service{config: config}
}

type Service struct {
	mtx sync.Mutex

	config Config
}

// Content returns the other teams' answers open for voting, grouped by
// question in the order the backend returned them.
func (s *Service) Content(ctx context.Context, eventID, ownTeamID int64) ([]rally.VotingContent, error) {
	rctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	list, err := s.config.Remote.GetVotingContent(rctx, eventID, ownTeamID)
	if err != nil {
		return nil, fmt.Errorf("get voting content: %w", err)
	}

	order := map[int64]int{}
	filtered := make([]rally.VotingContent, 0, len(list))
	for _, c := range list {
		if c.TeamID == ownTeamID {
			continue
		}
		if _, ok := order[c.QuestionID]; !ok {
			order[c.QuestionID] = len(order)
		}
		filtered = append(filtered, c)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return order[filtered[i].QuestionID] < order[filtered[j].QuestionID]
	})

	return filtered, nil
}

func (s *Service) voted(ctx context.Context, eventID int64) (map[int64]bool, error) {
	var ids []int64
	if err := s.config.KV.Get(ctx, kvDb.VotesKey(eventID), &ids); err != nil {
		if errors.Is(err, kvDb.ErrNotFound) {
			return map[int64]bool{}, nil
		}
		return nil, fmt.Errorf("get votes: %w", err)
	}

	voted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}

func (s *Service) persist(ctx context.Context, eventID int64, voted map[int64]bool) error {
	ids := make([]int64, 0, len(voted))
	for id := range voted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := s.config.KV.Set(ctx, kvDb.VotesKey(eventID), ids); err != nil {
		return fmt.Errorf("persist votes: %w", err)
	}
	return nil
}

// Remaining is Content without the questions this device already voted on.
func (s *Service) Remaining(ctx context.Context, eventID, ownTeamID int64) ([]rally.VotingContent, error) {
	list, err := s.Content(ctx, eventID, ownTeamID)
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	voted, err := s.voted(ctx, eventID)
	s.mtx.Unlock()
	if err != nil {
		return nil, err
	}

	remaining := list[:0]
	for _, c := range list {
		if !voted[c.QuestionID] {
			remaining = append(remaining, c)
		}
	}
	return remaining, nil
}

// Vote gives one point to an answer. A team votes once per question.
func (s *Service) Vote(ctx context.Context, eventID, ownTeamID int64, c rally.VotingContent) error {
	logger := logging.FromContext(ctx).Named("voting.Vote")

	if c.TeamID == ownTeamID {
		return ErrOwnAnswer
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	voted, err := s.voted(ctx, eventID)
	if err != nil {
		return err
	}
	if voted[c.QuestionID] {
		return fmt.Errorf("question %d: %w", c.QuestionID, ErrAlreadyVoted)
	}

	voted[c.QuestionID] = true
	if err := s.persist(ctx, eventID, voted); err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RequestTimeout)
	defer cancel()

	if err := s.config.Remote.IncrementAnswerPoints(rctx, c.AnswerID); err != nil {
		delete(voted, c.QuestionID)
		if perr := s.persist(ctx, eventID, voted); perr != nil {
			logger.Errorf("roll back vote on question %d: %v", c.QuestionID, perr)
		}
		return fmt.Errorf("increment answer points: %w", err)
	}

	return nil
}
