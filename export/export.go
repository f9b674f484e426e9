// Package export renders load lists as spreadsheets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"cargas/db/db"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", db.NewValidationError("format", fmt.Sprintf("unsupported export format %q", s))
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is cargas_<timestamp>.<ext>.
func (f Format) FileName(now time.Time) string {
	return fmt.Sprintf("cargas_%s.%s", now.Format("20060102_150405"), f)
}

var Headers = []string{
	"Protocolo",
	"Origem",
	"Destino",
	"Data Coleta",
	"Horário",
	"Produto",
	"Motorista",
	"Telefone",
	"Cavalo",
	"Carreta",
	"Confirmado",
	"Status",
	"Observação",
}

const sheetName = "Cargas"

// Rows turns loads into spreadsheet rows, header excluded. A load without
// a phone gets its driver's contact phone through loader.
func Rows(ctx context.Context, loads []db.Load, loader *db.ContactDataLoader) ([][]string, error) {
	phones := make([]string, len(loads))

	g, gctx := errgroup.WithContext(ctx)
	for i := range loads {
		phones[i] = loads[i].DriverPhone
		if phones[i] != "" || !loads[i].Assigned() {
			continue
		}
		g.Go(func() error {
			phone, err := loader.Phone(gctx, loads[i].DriverName)
			if err != nil {
				return fmt.Errorf("failed to resolve phone for %s: %w", loads[i].DriverName, err)
			}
			phones[i] = phone
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([][]string, len(loads))
	for i, l := range loads {
		confirmed := "Não"
		if l.HorseConfirmed {
			confirmed = "Sim"
		}
		rows[i] = []string{
			l.ProtocolCode,
			l.OriginName,
			l.DestinationName,
			l.PickupDate,
			l.ScheduledTime,
			string(l.Product),
			l.DriverName,
			phones[i],
			l.TruckPlate,
			l.TrailerPlate,
			confirmed,
			l.SystemStatus,
			l.Notes,
		}
	}
	return rows, nil
}

func WriteCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Headers); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// WriteXLSX writes a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#D9E1F2"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for col, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	first, _ := excelize.ColumnNumberToName(1)
	last, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetColWidth(sheetName, first, last, 18); err != nil {
		return err
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// Write renders loads in format to w.
func Write(ctx context.Context, w io.Writer, format Format, loads []db.Load, loader *db.ContactDataLoader) error {
	rows, err := Rows(ctx, loads, loader)
	if err != nil {
		return err
	}
	if format == FormatCSV {
		return WriteCSV(w, rows)
	}
	return WriteXLSX(w, rows)
}
