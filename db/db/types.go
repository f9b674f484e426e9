package db

import "strings"

// Kind selects one of the user-maintained reference lists.
type Kind string

const (
	KindOrigin      Kind = "origin"
	KindDestination Kind = "destination"
)

func (k Kind) Valid() bool {
	return k == KindOrigin || k == KindDestination
}

// Reference is an Origin or Destination entry.
type Reference struct {
	ID   string `json:"id" diff:"-"`
	Name string `json:"name" diff:"name"`
}

type Contact struct {
	ID         string `json:"id" diff:"-"`
	DriverName string `json:"driverName" diff:"driverName"`
	Phone      string `json:"phone" diff:"phone"`
}

// SameDriver reports whether the contact belongs to driverName,
// ignoring case and surrounding blanks.
func (c Contact) SameDriver(driverName string) bool {
	return strings.EqualFold(strings.TrimSpace(c.DriverName), strings.TrimSpace(driverName))
}

type Product string

const (
	ProductManteiga    Product = "Manteiga"
	ProductLicor       Product = "Licor"
	ProductManteigaRaw Product = "Manteiga Raw"
	ProductLicorRaw    Product = "Licor Raw"
)

var ProductList = []Product{
	ProductManteiga,
	ProductLicor,
	ProductManteigaRaw,
	ProductLicorRaw,
}

func (p Product) Valid() bool {
	for _, known := range ProductList {
		if p == known {
			return true
		}
	}
	return false
}

const DefaultSystemStatus = "Pendente"

// Load is a single freight movement ("carga").
type Load struct {
	ID              string  `json:"id" diff:"-"`
	ProtocolCode    string  `json:"protocolCode" diff:"protocolCode"`
	OriginName      string  `json:"originName" diff:"originName"`
	DestinationName string  `json:"destinationName" diff:"destinationName"`
	PickupDate      string  `json:"pickupDate" diff:"pickupDate"`
	ScheduledTime   string  `json:"scheduledTime" diff:"scheduledTime"`
	Product         Product `json:"product" diff:"product"`
	DriverName      string  `json:"driverName,omitempty" diff:"driverName"`
	TruckPlate      string  `json:"truckPlate,omitempty" diff:"truckPlate"`
	TrailerPlate    string  `json:"trailerPlate,omitempty" diff:"trailerPlate"`
	DriverPhone     string  `json:"driverPhone,omitempty" diff:"driverPhone"`
	HorseConfirmed  bool    `json:"horseConfirmed" diff:"horseConfirmed"`
	SystemStatus    string  `json:"systemStatus" diff:"systemStatus"`
	Notes           string  `json:"notes,omitempty" diff:"notes"`
}

// Assigned reports whether a driver is attached to the load.
func (l Load) Assigned() bool {
	return strings.TrimSpace(l.DriverName) != ""
}

// Restriction is a planned driver/vehicle unavailability ("restrição").
type Restriction struct {
	ID           string `json:"id" diff:"-"`
	DriverName   string `json:"driverName" diff:"driverName"`
	TruckPlate   string `json:"truckPlate" diff:"truckPlate"`
	TrailerPlate string `json:"trailerPlate" diff:"trailerPlate"`
	StartDate    string `json:"startDate" diff:"startDate"`
	// EndDate is empty for an open-ended restriction.
	EndDate string `json:"endDate,omitempty" diff:"endDate"`
	Reason  string `json:"reason" diff:"reason"`
}

// LoadDraft is a load being edited together with the flag set by the
// workflow that opened the form. The id is never used to infer newness.
type LoadDraft struct {
	Load  Load `json:"load"`
	IsNew bool `json:"isNew"`
}

type RestrictionDraft struct {
	Restriction Restriction `json:"restriction"`
	IsNew       bool        `json:"isNew"`
}
