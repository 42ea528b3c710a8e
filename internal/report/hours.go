// Package report exports franchise opening hours as an Excel workbook.
package report

import (
	"io"
	"time"

	"grabbi/internal/model"
	"grabbi/internal/storehours"
)

const (
	HoursSheet  = "Hours"
	StatusSheet = "Status"
)

var (
	hoursColumns  = []string{"Franchise ID", "Franchise", "City", "Day", "Status", "Opens", "Closes", "Overnight", "Hours"}
	statusColumns = []string{"Franchise ID", "Franchise", "Active", "Open Now", "Message", "Next Opening", "Open Hours / Week"}
)

// WriteHours writes one Hours row per franchise and weekday, plus a Status
// sheet with each franchise's availability at now.
func WriteHours(out io.Writer, franchises []*model.Franchise, now time.Time) error {
	wb := newWorkbook()
	defer wb.close()

	if err := wb.addSheet(HoursSheet); err != nil {
		return err
	}
	if err := wb.writeHeader(hoursColumns); err != nil {
		return err
	}
	for _, f := range franchises {
		if f == nil {
			continue
		}
		for _, day := range storehours.WeeklySchedule(f.StoreHours) {
			status := "Open"
			if day.IsClosed {
				status = "Closed"
			}
			row := []any{f.ID, f.Name, f.City, day.DayName, status, day.OpenTime, day.CloseTime, yesNo(day.Overnight), day.Label}
			if err := wb.writeRow(row); err != nil {
				return err
			}
		}
	}

	if err := wb.addSheet(StatusSheet); err != nil {
		return err
	}
	if err := wb.writeHeader(statusColumns); err != nil {
		return err
	}
	for _, f := range franchises {
		if f == nil {
			continue
		}
		info := storehours.FranchiseStatus(f, now)
		next := ""
		if info.NextOpening != nil {
			next = info.NextOpening.DayName + " " + info.NextOpening.OpenTimeFormatted
		}
		hours := float64(storehours.OpenMinutesPerWeek(f.StoreHours)) / 60
		row := []any{f.ID, f.Name, yesNo(f.IsActive), yesNo(info.IsOpen), info.Message, next, hours}
		if err := wb.writeRow(row); err != nil {
			return err
		}
	}

	return wb.save(out)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
