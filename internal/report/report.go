// Package report renders bookings into an Excel workbook: one sheet for the
// active schedule, one for the retained history of soft-deleted rows.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// BookingSource provides every booking, inactive rows included.
type BookingSource interface {
	GetAllBookings(ctx context.Context) ([]models.Booking, error)
}

// Exporter builds booking workbooks.
type Exporter struct {
	source BookingSource
	logger *zerolog.Logger
}

// NewExporter constructs an exporter over the booking store.
func NewExporter(source BookingSource, logger *zerolog.Logger) *Exporter {
	return &Exporter{source: source, logger: logger}
}

var headerColumns = []string{
	"ID", "Room", "Location", "Capacity", "Booked By", "Matriculation", "Department",
	"Start", "End", "Purpose", "Created", "Updated",
}

// Build writes the workbook to w.
func (e *Exporter) Build(ctx context.Context, w io.Writer) error {
	bookings, err := e.source.GetAllBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	var active, history []models.Booking
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		} else {
			history = append(history, b)
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSheet(f, "Active Bookings", active, true); err != nil {
		return err
	}
	if err := writeSheet(f, "History", history, false); err != nil {
		return err
	}

	e.logger.Debug().
		Int("active", len(active)).
		Int("history", len(history)).
		Msg("booking workbook built")
	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, bookings []models.Booking, first bool) error {
	if first {
		// Rename the default sheet instead of creating a second one.
		f.SetSheetName("Sheet1", name)
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	for i, col := range headerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headerColumns), 1)
		_ = f.SetCellStyle(name, startCell, endCell, style)
	}

	for i := range bookings {
		b := &bookings[i]
		row := []any{
			b.ID, b.Room.Name, b.Room.Location, b.Room.Capacity,
			b.Person.Name, b.Person.MatriNumber, b.Person.Department,
			b.StartTime.Format(time.RFC3339), b.EndTime.Format(time.RFC3339),
			b.Purpose,
			b.CreatedAt.Format(time.RFC3339), b.UpdatedAt.Format(time.RFC3339),
		}
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
