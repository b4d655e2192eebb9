package services

import (
	"fmt"
	"net/url"
	"time"

	models "github.com/phillip/riseandserve-go/models"
)

// CountdownInterval is how often a displayed countdown is recomputed.
const CountdownInterval = time.Second

// CalendarDuration is the length given to calendar entries; events carry no end time.
const CalendarDuration = time.Hour

// CountdownTo breaks the time left until eventDate into whole days, hours,
// minutes and seconds. Once nothing remains the event is live and every
// component is zero.
func CountdownTo(eventDate, now time.Time) models.Countdown {
	remaining := eventDate.Sub(now)
	if remaining <= 0 {
		return models.Countdown{Live: true}
	}
	secs := int64(remaining / time.Second)
	return models.Countdown{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

const calendarStamp = "20060102T150405Z"

// GoogleCalendarURL builds an "add to calendar" link for the event.
func GoogleCalendarURL(event models.Event) string {
	start := event.EventDate.UTC()
	end := start.Add(CalendarDuration)

	q := url.Values{}
	q.Set("text", event.Title)
	q.Set("dates", fmt.Sprintf("%s/%s", start.Format(calendarStamp), end.Format(calendarStamp)))
	q.Set("details", event.Description)
	q.Set("location", event.Location)
	q.Set("sf", "true")
	q.Set("output", "xml")
	return "https://calendar.google.com/calendar/r/eventedit?" + q.Encode()
}

// MapURL turns the free-text location into an embeddable map query.
func MapURL(location string) string {
	return "https://www.google.com/maps?" + url.Values{"q": {location}, "output": {"embed"}}.Encode()
}
