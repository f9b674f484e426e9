package syncer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"cargas/db/db"
)

// AssignDriver attaches driverName to load and fills the denormalized
// fields. Plates come from the fleet and are reset when the driver changes
// and the fleet has no entry. The phone is copied from a matching contact
// and left untouched otherwise. A first assignment marks the horse as
// confirmed. An empty name clears the assignment.
func (s *Synchronizer) AssignDriver(ctx context.Context, load *db.Load, driverName string) {
	driverName = strings.TrimSpace(driverName)
	if driverName == "" {
		s.ClearDriver(load)
		return
	}

	wasAssigned := load.Assigned()
	changed := !strings.EqualFold(strings.TrimSpace(load.DriverName), driverName)
	load.DriverName = driverName

	if record, ok := s.fleet.FindByName(ctx, driverName); ok {
		load.TruckPlate = record.TruckPlate
		load.TrailerPlate = record.TrailerPlate
	} else if changed {
		load.TruckPlate = ""
		load.TrailerPlate = ""
	}

	if phone, ok := s.contactPhone(ctx, driverName); ok {
		load.DriverPhone = phone
	}

	if !wasAssigned {
		load.HorseConfirmed = true
	}
}

// ClearDriver returns load to the unassigned state. The driver's contact
// is kept.
func (s *Synchronizer) ClearDriver(load *db.Load) {
	load.DriverName = ""
	load.TruckPlate = ""
	load.TrailerPlate = ""
	load.DriverPhone = ""
	load.HorseConfirmed = false
	load.SystemStatus = db.DefaultSystemStatus
}

// SetConfirmed toggles the horse confirmation of an assigned load.
func (s *Synchronizer) SetConfirmed(load *db.Load, confirmed bool) error {
	if confirmed && !load.Assigned() {
		return db.NewValidationError("horseConfirmed", "cannot confirm a load without a driver")
	}
	load.HorseConfirmed = confirmed
	return nil
}

// AssignRestrictionDriver fills the restriction plates the same way loads
// get them. Restrictions carry no phone.
func (s *Synchronizer) AssignRestrictionDriver(ctx context.Context, r *db.Restriction, driverName string) {
	driverName = strings.TrimSpace(driverName)
	changed := !strings.EqualFold(strings.TrimSpace(r.DriverName), driverName)
	r.DriverName = driverName
	if driverName == "" {
		r.TruckPlate = ""
		r.TrailerPlate = ""
		return
	}
	if record, ok := s.fleet.FindByName(ctx, driverName); ok {
		r.TruckPlate = record.TruckPlate
		r.TrailerPlate = record.TrailerPlate
	} else if changed {
		r.TruckPlate = ""
		r.TrailerPlate = ""
	}
}

// enrichLoad applies the assignment rules to a submitted load, relative to
// the driver stored before the save (empty for new loads). An unchanged
// driver keeps the submitted plates, phone and confirmation.
func (s *Synchronizer) enrichLoad(ctx context.Context, load *db.Load, previous string) {
	driverName := strings.TrimSpace(load.DriverName)
	if driverName == "" {
		s.ClearDriver(load)
		return
	}
	if strings.EqualFold(strings.TrimSpace(previous), driverName) {
		return
	}
	load.DriverName = previous
	s.AssignDriver(ctx, load, driverName)
}

func (s *Synchronizer) enrichRestriction(ctx context.Context, r *db.Restriction, previous string) {
	driverName := strings.TrimSpace(r.DriverName)
	if strings.EqualFold(strings.TrimSpace(previous), driverName) {
		return
	}
	r.DriverName = previous
	s.AssignRestrictionDriver(ctx, r, driverName)
}

// contactPhone reports the phone of driverName's contact. A failing contact
// read counts as no contact.
func (s *Synchronizer) contactPhone(ctx context.Context, driverName string) (string, bool) {
	contact, err := s.refs.FindByDriverName(ctx, driverName)
	if err != nil {
		s.logger.Warn("contact lookup failed, keeping current phone", zap.String("driver", driverName), zap.Error(err))
		return "", false
	}
	if contact == nil || contact.Phone == "" {
		return "", false
	}
	return contact.Phone, true
}
