package pg

import (
	"time"

	"github.com/google/uuid"

	dbt "cargas/db/db"
)

type ReferenceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind      string    `gorm:"size:32;not null;index"`
	Name      string    `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ReferenceModel) TableName() string {
	return "reference_entries"
}

type ContactModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverName string    `gorm:"size:255;not null"`
	Phone      string    `gorm:"size:32;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ContactModel) TableName() string {
	return "contacts"
}

type LoadModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProtocolCode    string    `gorm:"size:32;not null"`
	OriginName      string    `gorm:"size:255;not null"`
	DestinationName string    `gorm:"size:255;not null"`
	PickupDate      string    `gorm:"size:10;not null"`
	ScheduledTime   string    `gorm:"size:5;not null"`
	Product         string    `gorm:"size:32;not null"`
	DriverName      string    `gorm:"size:255;not null"`
	TruckPlate      string    `gorm:"size:16;not null"`
	TrailerPlate    string    `gorm:"size:16;not null"`
	DriverPhone     string    `gorm:"size:32;not null"`
	HorseConfirmed  bool      `gorm:"not null"`
	SystemStatus    string    `gorm:"size:64;not null"`
	Notes           string    `gorm:"type:text;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (LoadModel) TableName() string {
	return "loads"
}

type RestrictionModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverName   string    `gorm:"size:255;not null"`
	TruckPlate   string    `gorm:"size:16;not null"`
	TrailerPlate string    `gorm:"size:16;not null"`
	StartDate    string    `gorm:"size:10;not null"`
	// empty string is stored as NULL
	EndDate   *string `gorm:"size:10"`
	Reason    string  `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RestrictionModel) TableName() string {
	return "restrictions"
}

func loadToModel(l *dbt.Load, id uuid.UUID) LoadModel {
	return LoadModel{
		ID:              id,
		ProtocolCode:    l.ProtocolCode,
		OriginName:      l.OriginName,
		DestinationName: l.DestinationName,
		PickupDate:      l.PickupDate,
		ScheduledTime:   l.ScheduledTime,
		Product:         string(l.Product),
		DriverName:      l.DriverName,
		TruckPlate:      l.TruckPlate,
		TrailerPlate:    l.TrailerPlate,
		DriverPhone:     l.DriverPhone,
		HorseConfirmed:  l.HorseConfirmed,
		SystemStatus:    l.SystemStatus,
		Notes:           l.Notes,
	}
}

func (m LoadModel) toLoad() dbt.Load {
	return dbt.Load{
		ID:              m.ID.String(),
		ProtocolCode:    m.ProtocolCode,
		OriginName:      m.OriginName,
		DestinationName: m.DestinationName,
		PickupDate:      m.PickupDate,
		ScheduledTime:   m.ScheduledTime,
		Product:         dbt.Product(m.Product),
		DriverName:      m.DriverName,
		TruckPlate:      m.TruckPlate,
		TrailerPlate:    m.TrailerPlate,
		DriverPhone:     m.DriverPhone,
		HorseConfirmed:  m.HorseConfirmed,
		SystemStatus:    m.SystemStatus,
		Notes:           m.Notes,
	}
}

func restrictionToModel(r *dbt.Restriction, id uuid.UUID) RestrictionModel {
	m := RestrictionModel{
		ID:           id,
		DriverName:   r.DriverName,
		TruckPlate:   r.TruckPlate,
		TrailerPlate: r.TrailerPlate,
		StartDate:    r.StartDate,
		Reason:       r.Reason,
	}
	if r.EndDate != "" {
		end := r.EndDate
		m.EndDate = &end
	}
	return m
}

func (m RestrictionModel) toRestriction() dbt.Restriction {
	r := dbt.Restriction{
		ID:           m.ID.String(),
		DriverName:   m.DriverName,
		TruckPlate:   m.TruckPlate,
		TrailerPlate: m.TrailerPlate,
		StartDate:    m.StartDate,
		Reason:       m.Reason,
	}
	if m.EndDate != nil {
		r.EndDate = *m.EndDate
	}
	return r
}
