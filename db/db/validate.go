package db

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateReferenceName rejects empty or whitespace-only names.
func ValidateReferenceName(name string) error {
	if blank(name) {
		return NewValidationError("name", "must not be empty")
	}
	return nil
}

func ValidateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return NewValidationError(field, "expected YYYY-MM-DD, got "+value)
	}
	return nil
}

// ValidateLoad checks the fields the load form requires.
func ValidateLoad(l Load) error {
	if blank(l.OriginName) {
		return NewValidationError("originName", "must not be empty")
	}
	if blank(l.DestinationName) {
		return NewValidationError("destinationName", "must not be empty")
	}
	if blank(l.ProtocolCode) {
		return NewValidationError("protocolCode", "must not be empty")
	}
	if !l.Product.Valid() {
		return NewValidationError("product", "unknown product "+string(l.Product))
	}
	if err := ValidateDate("pickupDate", l.PickupDate); err != nil {
		return err
	}
	if l.ScheduledTime != "" {
		if _, err := time.Parse(TimeLayout, l.ScheduledTime); err != nil {
			return NewValidationError("scheduledTime", "expected HH:MM, got "+l.ScheduledTime)
		}
	}
	return nil
}

// ValidateRestriction requires a driver and a start date, and an end date
// that does not precede the start.
func ValidateRestriction(r Restriction) error {
	if blank(r.DriverName) {
		return NewValidationError("driverName", "must not be empty")
	}
	if blank(r.StartDate) {
		return NewValidationError("startDate", "must not be empty")
	}
	if err := ValidateDate("startDate", r.StartDate); err != nil {
		return err
	}
	if r.EndDate == "" {
		return nil
	}
	if err := ValidateDate("endDate", r.EndDate); err != nil {
		return err
	}
	if r.EndDate < r.StartDate {
		return NewValidationError("endDate", "must not be before startDate")
	}
	return nil
}
