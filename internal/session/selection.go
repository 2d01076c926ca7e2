package session

import (
	"context"
	"errors"
	"fmt"

	kvDb "github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/database/kv/database"
	"github.com/DHBWLoerrach/CampusRallyeApp-sub000/internal/rally"
)

// Selection is the organization and department the user browses events of.
type Selection struct {
	Organization *rally.Organization
	Department   *rally.Department
}

func (s *Store) SelectOrganization(ctx context.Context, org rally.Organization) error {
	if err := s.config.KV.Set(ctx, kvDb.KeySelectedOrganization, org); err != nil {
		return fmt.Errorf("persist organization: %w", err)
	}
	// a department belongs to exactly one organization
	if err := s.config.KV.Remove(ctx, kvDb.KeySelectedDepartment); err != nil {
		return fmt.Errorf("clear department: %w", err)
	}
	return nil
}

func (s *Store) SelectDepartment(ctx context.Context, dep rally.Department) error {
	if err := s.config.KV.Set(ctx, kvDb.KeySelectedDepartment, dep); err != nil {
		return fmt.Errorf("persist department: %w", err)
	}
	return nil
}

func (s *Store) Selection(ctx context.Context) (Selection, error) {
	var sel Selection

	var org rally.Organization
	switch err := s.config.KV.Get(ctx, kvDb.KeySelectedOrganization, &org); {
	case err == nil:
		sel.Organization = &org
	case !errors.Is(err, kvDb.ErrNotFound):
		return sel, fmt.Errorf("get organization: %w", err)
	}

	var dep rally.Department
	switch err := s.config.KV.Get(ctx, kvDb.KeySelectedDepartment, &dep); {
	case err == nil:
		sel.Department = &dep
	case !errors.Is(err, kvDb.ErrNotFound):
		return sel, fmt.Errorf("get department: %w", err)
	}

	return sel, nil
}

// ListJoinable returns the running events, limited to the selected
// department when one is selected.
func (s *Store) ListJoinable(ctx context.Context) ([]rally.Event, error) {
	sel, err := s.Selection(ctx)
	if err != nil {
		return nil, err
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()

	events, err := s.config.Remote.GetEventsByStatus(rctx, rally.EventStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("get running events: %w", err)
	}

	if sel.Department == nil {
		return events, nil
	}

	filtered := events[:0]
	for _, ev := range events {
		if ev.DepartmentID == sel.Department.ID {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}
