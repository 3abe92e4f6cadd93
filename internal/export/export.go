// Package export renders RSVP lists into downloadable formats for the host
// dashboard.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/soiree-app/soiree/internal/models"
)

const rsvpSheet = "RSVPs"

var rsvpHeader = []string{"Timestamp", "Name", "Email", "Attending", "Message"}

// WriteRsvpsXLSX writes an xlsx workbook with a single RSVPs sheet.
func WriteRsvpsXLSX(w io.Writer, rsvps []models.Rsvp) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rsvpSheet)
	if err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(rsvpSheet, "A1", &rsvpHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i, rsvp := range rsvps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row coordinates: %w", err)
		}
		row := []interface{}{
			rsvp.CreatedAt.Format("2006-01-02 15:04:05"),
			rsvp.Name,
			rsvp.Email,
			rsvp.Attending,
			rsvp.Message,
		}
		if err := f.SetSheetRow(rsvpSheet, cell, &row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// WriteRsvpsJSON streams the RSVP list as a pretty-printed JSON array.
func WriteRsvpsJSON(w io.Writer, rsvps []models.Rsvp) error {
	if rsvps == nil {
		rsvps = []models.Rsvp{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rsvps); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
