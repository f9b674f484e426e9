package sp

import (
	"fmt"
	"strconv"
	"strings"

	"cargas/db/db"
)

// SharePoint column names. Title is the built-in display column: it holds
// the name of a reference or contact, the protocol code of a load and the
// driver of a restriction.
const (
	fieldTitle = "Title"

	fieldPhone = "Telefone"

	fieldOrigin         = "Origem"
	fieldDestination    = "Destino"
	fieldPickupDate     = "DataColeta"
	fieldScheduledTime  = "Horario"
	fieldProduct        = "Produto"
	fieldDriver         = "Motorista"
	fieldTruckPlate     = "Cavalo"
	fieldTrailerPlate   = "Carreta"
	fieldDriverPhone    = "TelefoneMotorista"
	fieldHorseConfirmed = "CavaloConfirmado"
	fieldSystemStatus   = "StatusSistema"
	fieldNotes          = "Observacao"
	fieldNotesAccented  = "Observação"

	fieldStartDate = "DataInicio"
	fieldEndDate   = "DataFim"
	fieldReason    = "Motivo"
)

// loadColumns maps the diff name of a Load field to its column.
var loadColumns = map[string]string{
	"protocolCode":    fieldTitle,
	"originName":      fieldOrigin,
	"destinationName": fieldDestination,
	"pickupDate":      fieldPickupDate,
	"scheduledTime":   fieldScheduledTime,
	"product":         fieldProduct,
	"driverName":      fieldDriver,
	"truckPlate":      fieldTruckPlate,
	"trailerPlate":    fieldTrailerPlate,
	"driverPhone":     fieldDriverPhone,
	"horseConfirmed":  fieldHorseConfirmed,
	"systemStatus":    fieldSystemStatus,
	"notes":           fieldNotes,
}

var restrictionColumns = map[string]string{
	"driverName":   fieldTitle,
	"truckPlate":   fieldTruckPlate,
	"trailerPlate": fieldTrailerPlate,
	"startDate":    fieldStartDate,
	"endDate":      fieldEndDate,
	"reason":       fieldReason,
}

// text reads the first of keys present in fields as a string.
func text(fields map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return strings.TrimSpace(val)
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		default:
			return fmt.Sprint(val)
		}
	}
	return ""
}

// date accepts both plain dates and the ISO timestamps date columns
// return.
func date(fields map[string]interface{}, key string) string {
	v := text(fields, key)
	if len(v) > len(db.DateLayout) && v[len(db.DateLayout)] == 'T' {
		return v[:len(db.DateLayout)]
	}
	return v
}

func flag(fields map[string]interface{}, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "sim", "1", "yes":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}

func referenceFromItem(item Item) db.Reference {
	return db.Reference{ID: item.ID, Name: text(item.Fields, fieldTitle)}
}

func contactFromItem(item Item) db.Contact {
	return db.Contact{
		ID:         item.ID,
		DriverName: text(item.Fields, fieldTitle),
		Phone:      text(item.Fields, fieldPhone),
	}
}

func contactFields(c db.Contact) map[string]interface{} {
	return map[string]interface{}{
		fieldTitle: c.DriverName,
		fieldPhone: c.Phone,
	}
}

func loadFromItem(item Item) db.Load {
	f := item.Fields
	return db.Load{
		ID:              item.ID,
		ProtocolCode:    text(f, fieldTitle),
		OriginName:      text(f, fieldOrigin),
		DestinationName: text(f, fieldDestination),
		PickupDate:      date(f, fieldPickupDate),
		ScheduledTime:   text(f, fieldScheduledTime),
		Product:         db.Product(text(f, fieldProduct)),
		DriverName:      text(f, fieldDriver),
		TruckPlate:      text(f, fieldTruckPlate),
		TrailerPlate:    text(f, fieldTrailerPlate),
		DriverPhone:     text(f, fieldDriverPhone),
		HorseConfirmed:  flag(f, fieldHorseConfirmed),
		SystemStatus:    text(f, fieldSystemStatus),
		Notes:           text(f, fieldNotes, fieldNotesAccented),
	}
}

// loadValue is the column value of the Load field with the given diff name.
func loadValue(l db.Load, name string) interface{} {
	switch name {
	case "protocolCode":
		return l.ProtocolCode
	case "originName":
		return l.OriginName
	case "destinationName":
		return l.DestinationName
	case "pickupDate":
		return l.PickupDate
	case "scheduledTime":
		return l.ScheduledTime
	case "product":
		return string(l.Product)
	case "driverName":
		return l.DriverName
	case "truckPlate":
		return l.TruckPlate
	case "trailerPlate":
		return l.TrailerPlate
	case "driverPhone":
		return l.DriverPhone
	case "horseConfirmed":
		return l.HorseConfirmed
	case "systemStatus":
		return l.SystemStatus
	case "notes":
		return l.Notes
	}
	return nil
}

func loadFields(l db.Load) map[string]interface{} {
	fields := make(map[string]interface{}, len(loadColumns))
	for name, column := range loadColumns {
		fields[column] = loadValue(l, name)
	}
	return fields
}

func restrictionFromItem(item Item) db.Restriction {
	f := item.Fields
	return db.Restriction{
		ID:           item.ID,
		DriverName:   text(f, fieldTitle),
		TruckPlate:   text(f, fieldTruckPlate),
		TrailerPlate: text(f, fieldTrailerPlate),
		StartDate:    date(f, fieldStartDate),
		EndDate:      date(f, fieldEndDate),
		Reason:       text(f, fieldReason),
	}
}

func restrictionValue(r db.Restriction, name string) interface{} {
	switch name {
	case "driverName":
		return r.DriverName
	case "truckPlate":
		return r.TruckPlate
	case "trailerPlate":
		return r.TrailerPlate
	case "startDate":
		return r.StartDate
	case "endDate":
		// an open-ended restriction clears the column
		if r.EndDate == "" {
			return nil
		}
		return r.EndDate
	case "reason":
		return r.Reason
	}
	return nil
}

func restrictionFields(r db.Restriction) map[string]interface{} {
	fields := make(map[string]interface{}, len(restrictionColumns))
	for name, column := range restrictionColumns {
		fields[column] = restrictionValue(r, name)
	}
	return fields
}

// patchFields maps changed diff names to a column patch.
func patchFields(changed []string, columns map[string]string, value func(string) interface{}) map[string]interface{} {
	patch := make(map[string]interface{}, len(changed))
	for _, name := range changed {
		column, ok := columns[name]
		if !ok {
			continue
		}
		patch[column] = value(name)
	}
	return patch
}
