package services

import (
	"bytes"
	"fmt"

	"github.com/tablereserve/reservation-app/models"
	"github.com/xuri/excelize/v2"
)

var ReservationExportHeader = []string{
	"Code",
	"Restaurant",
	"Date",
	"Time Slot",
	"Party Size",
	"Guest Name",
	"Guest Email",
	"Guest Phone",
	"Status",
	"Source",
	"Notes",
	"Created At",
}

const reservationSheet = "Reservations"

// ExportReservations writes reservations to an xlsx workbook. Restaurant names
// come from the preloaded Restaurant association when present.
func ExportReservations(reservations []models.Reservation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(reservationSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(reservationSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range ReservationExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(reservationSheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(reservationSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, r := range reservations {
		restaurantName := ""
		if r.Restaurant != nil {
			restaurantName = r.Restaurant.Name
		}
		row := []interface{}{
			r.Code,
			restaurantName,
			r.Date,
			r.TimeSlot,
			r.PartySize,
			r.GuestName,
			r.GuestEmail,
			deref(r.GuestPhone),
			string(r.Status),
			string(r.Source),
			deref(r.Notes),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reservationSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
