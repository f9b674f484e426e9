package syncer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cargas/db/db"
	"cargas/fleet"
	"cargas/notify"
)

// Screen is the reference data every form needs, fetched together.
type Screen struct {
	Origins      []db.Reference `json:"origins"`
	Destinations []db.Reference `json:"destinations"`
	Fleet        []fleet.Record `json:"fleet"`
	Contacts     []db.Contact   `json:"contacts"`
	// Degraded names the parts that failed to load and are empty.
	Degraded []string `json:"degraded,omitempty"`
}

// LoadScreen fetches origins, destinations, fleet and contacts
// concurrently and joins them. A failing part is logged and left empty;
// only cancellation of ctx fails the whole screen.
func (s *Synchronizer) LoadScreen(ctx context.Context) (Screen, error) {
	var (
		screen   Screen
		degraded [4]string
	)
	g, gctx := errgroup.WithContext(ctx)

	degrade := func(slot int, part string, err error) {
		s.logger.Warn("screen data unavailable", zap.String("part", part), zap.Error(err))
		degraded[slot] = part
	}

	g.Go(func() error {
		refs, err := s.refs.List(gctx, db.KindOrigin)
		if err != nil {
			degrade(0, "origins", err)
			return nil
		}
		screen.Origins = refs
		return nil
	})
	g.Go(func() error {
		refs, err := s.refs.List(gctx, db.KindDestination)
		if err != nil {
			degrade(1, "destinations", err)
			return nil
		}
		screen.Destinations = refs
		return nil
	})
	g.Go(func() error {
		records, err := s.fleetSnapshot(gctx)
		if err != nil {
			degrade(2, "fleet", err)
			return nil
		}
		screen.Fleet = records
		return nil
	})
	g.Go(func() error {
		contacts, err := s.refs.Contacts(gctx)
		if err != nil {
			degrade(3, "contacts", err)
			return nil
		}
		screen.Contacts = contacts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Screen{}, err
	}
	if err := ctx.Err(); err != nil {
		return Screen{}, err
	}

	for _, part := range degraded {
		if part != "" {
			screen.Degraded = append(screen.Degraded, part)
		}
	}
	if screen.Origins == nil {
		screen.Origins = []db.Reference{}
	}
	if screen.Destinations == nil {
		screen.Destinations = []db.Reference{}
	}
	if screen.Fleet == nil {
		screen.Fleet = []fleet.Record{}
	}
	if screen.Contacts == nil {
		screen.Contacts = []db.Contact{}
	}
	return screen, nil
}

// fleetSnapshot tells a failed fetch (nil) from an empty fleet.
func (s *Synchronizer) fleetSnapshot(ctx context.Context) ([]fleet.Record, error) {
	records := s.fleet.Snapshot(ctx)
	if records == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errFleetUnavailable
	}
	return records, nil
}

var (
	ErrNoTrigger        = errors.New("automation webhooks are not configured")
	errFleetUnavailable = errors.New("fleet source unavailable")
)

// NotifyFleet announces the given loads, or every assigned load when ids is
// empty, to their drivers. Missing phones are resolved from contacts in
// one batched lookup. It returns the refreshed load list.
func (s *Synchronizer) NotifyFleet(ctx context.Context, ids []string) ([]db.Load, error) {
	if s.trigger == nil {
		return nil, ErrNoTrigger
	}
	loads, err := s.store.ListLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var selected []db.Load
	for _, l := range loads {
		if !l.Assigned() {
			continue
		}
		if len(wanted) > 0 && !wanted[l.ID] {
			continue
		}
		selected = append(selected, l)
	}
	if len(selected) == 0 {
		return nil, db.NewValidationError("ids", "no assigned loads to notify")
	}

	notices, err := s.fleetNotices(ctx, selected)
	if err != nil {
		return nil, err
	}
	if err := s.trigger.NotifyFleet(ctx, notices); err != nil {
		return nil, err
	}
	s.logger.Info("fleet notified", zap.Int("loads", len(notices)))
	return s.ListLoads(ctx, db.LoadFilter{})
}

func (s *Synchronizer) fleetNotices(ctx context.Context, loads []db.Load) ([]notify.FleetNotice, error) {
	loader := db.NewContactDataLoader(s.store)
	notices := make([]notify.FleetNotice, len(loads))

	g, gctx := errgroup.WithContext(ctx)
	for i := range loads {
		notices[i] = notify.NewFleetNotice(loads[i])
		if notices[i].DriverPhone != "" {
			continue
		}
		g.Go(func() error {
			phone, err := loader.Phone(gctx, loads[i].DriverName)
			if err != nil {
				return fmt.Errorf("failed to resolve phone for %s: %w", loads[i].DriverName, err)
			}
			notices[i].DriverPhone = phone
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return notices, nil
}

// RunAISelector asks the external selector to assign drivers for date and
// returns that day's loads as they are afterwards.
func (s *Synchronizer) RunAISelector(ctx context.Context, date string) ([]db.Load, error) {
	if s.trigger == nil {
		return nil, ErrNoTrigger
	}
	if date != "" {
		if err := db.ValidateDate("date", date); err != nil {
			return nil, err
		}
	}
	if err := s.trigger.RunAISelector(ctx, date); err != nil {
		return nil, err
	}
	return s.ListLoads(ctx, db.LoadFilter{PickupDate: date})
}
