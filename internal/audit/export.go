// Package audit renders the hotel state as an xlsx workbook for staff
// review and offline archiving.
package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"infinityhotel/internal/engine"
	"infinityhotel/internal/models"
)

const (
	sheetReservations = "Reservations"
	sheetRooms        = "Rooms"
	sheetCustomers    = "Customers"
	sheetHotel        = "Hotel"
)

// FilePrefix starts the name of every archived workbook.
const FilePrefix = "infinity-hotel_"

// Source provides a consistent copy of every collection.
type Source interface {
	Snapshot(ctx context.Context) (*engine.Snapshot, error)
}

type Exporter struct {
	src Source
}

func NewExporter(src Source) *Exporter {
	return &Exporter{src: src}
}

// Filename returns the archive name for an export taken at t.
func Filename(t time.Time) string {
	return FilePrefix + t.Format("20060102_150405") + ".xlsx"
}

// Export writes the workbook to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	snap, err := e.src.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	wb := newWorkbook()
	defer wb.close()

	if err := writeReservations(wb, snap); err != nil {
		return err
	}
	if err := writeRooms(wb, snap.Rooms); err != nil {
		return err
	}
	if err := writeCustomers(wb, snap.Customers); err != nil {
		return err
	}
	if err := writeHotel(wb, snap.HotelInfo); err != nil {
		return err
	}
	return wb.save(w)
}

// ExportFile writes the workbook into dir and returns its path.
func (e *Exporter) ExportFile(ctx context.Context, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(at))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := e.Export(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	return path, f.Close()
}

func writeReservations(wb *workbook, snap *engine.Snapshot) error {
	if err := wb.addSheet(sheetReservations); err != nil {
		return err
	}
	if err := wb.header("ID", "Customer", "Room", "Room type", "Check-in", "Check-out",
		"Nights", "Total", "Paid", "Status", "Origin", "Created at"); err != nil {
		return err
	}
	for _, v := range snap.Views(snap.Reservations) {
		if err := wb.append(
			v.ID,
			v.CustomerName,
			v.RoomNumber,
			v.RoomType,
			v.CheckIn.Format(models.DateLayout),
			v.CheckOut.Format(models.DateLayout),
			v.Nights(),
			v.Total,
			yesNo(v.Paid),
			string(v.Status),
			string(v.Origin),
			v.CreatedAt.Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeRooms(wb *workbook, rooms []models.Room) error {
	if err := wb.addSheet(sheetRooms); err != nil {
		return err
	}
	if err := wb.header("Number", "Type", "Price", "In service"); err != nil {
		return err
	}
	for _, r := range rooms {
		if err := wb.append(r.Number, string(r.Type), r.Price, yesNo(r.InService)); err != nil {
			return err
		}
	}
	return nil
}

func writeCustomers(wb *workbook, customers []models.Customer) error {
	if err := wb.addSheet(sheetCustomers); err != nil {
		return err
	}
	if err := wb.header("ID", "Name", "Email", "Phone", "Registered at"); err != nil {
		return err
	}
	for _, c := range customers {
		if err := wb.append(c.ID, c.Name, c.Email, c.Phone, c.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

func writeHotel(wb *workbook, info models.HotelInfo) error {
	if err := wb.addSheet(sheetHotel); err != nil {
		return err
	}
	if err := wb.header("Name", "Address", "Phone"); err != nil {
		return err
	}
	return wb.append(info.Name, info.Address, info.Phone)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
