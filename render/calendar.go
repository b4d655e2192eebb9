package render

import (
	"time"

	ics "github.com/arran4/golang-ical"

	models "github.com/phillip/riseandserve-go/models"
)

const productID = "-//RiseAndServe//Events//EN"

// EventICS renders a single-event iCalendar file. Events carry no end time
// so the entry lasts duration.
func EventICS(event models.Event, duration time.Duration, url string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	e := cal.AddEvent(event.ID.Hex() + "@riseandserve")
	e.SetCreatedTime(event.CreatedAt)
	e.SetDtStampTime(event.UpdatedAt)
	e.SetModifiedAt(event.UpdatedAt)
	e.SetStartAt(event.EventDate)
	e.SetEndAt(event.EventDate.Add(duration))
	e.SetSummary(event.Title)
	e.SetLocation(event.Location)
	e.SetDescription(event.Description)
	if url != "" {
		e.SetURL(url)
	}
	if event.Creator.Email != "" {
		e.SetOrganizer("mailto:"+event.Creator.Email, ics.WithCN(event.Creator.Name))
	}
	return cal.Serialize()
}
