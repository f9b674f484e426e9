package fleet

import (
	"context"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"cargas/db/db"
)

var viewNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// fleetViewRow maps the read-only fleet view columns.
type fleetViewRow struct {
	Motorista         string `gorm:"column:motorista"`
	Cavalo            string `gorm:"column:cavalo"`
	Carreta           string `gorm:"column:carreta"`
	DescricaoTruncada string `gorm:"column:descricao_truncada"`
}

// PGViewSource reads the fleet from a Postgres view owned by another system.
type PGViewSource struct {
	db   *gorm.DB
	view string
}

func NewPGViewSource(gdb *gorm.DB, view string) (*PGViewSource, error) {
	if !viewNamePattern.MatchString(view) {
		return nil, fmt.Errorf("invalid fleet view name %q", view)
	}
	return &PGViewSource{db: gdb, view: view}, nil
}

func (s *PGViewSource) Fetch(ctx context.Context) ([]Record, error) {
	var rows []fleetViewRow
	result := s.db.WithContext(ctx).
		Table(s.view).
		Select("motorista", "cavalo", "carreta", "descricao_truncada").
		Where("motorista IS NOT NULL AND motorista <> ''").
		Order("motorista").
		Find(&rows)
	if result.Error != nil {
		return nil, &db.TransportError{Op: "query fleet view " + s.view, Err: result.Error}
	}

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, Record{
			DriverName:   r.Motorista,
			TruckPlate:   r.Cavalo,
			TrailerPlate: r.Carreta,
			Description:  r.DescricaoTruncada,
		})
	}
	return records, nil
}
