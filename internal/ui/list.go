package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/calday/internal/formatter"
	"github.com/desertthunder/calday/internal/models"
)

var (
	_ list.Item = eventItem{}
)

// eventItem wraps [models.CalendarEvent] to implement [list.Item].
type eventItem struct {
	event models.CalendarEvent
}

func (i eventItem) FilterValue() string { return i.event.Title }
func (i eventItem) Title() string       { return formatter.Title(i.event) }
func (i eventItem) Description() string {
	when := formatter.StartTime(i.event)
	if !i.event.AllDay {
		when = fmt.Sprintf("%s - %s", when, formatter.EndTime(i.event))
	}
	return fmt.Sprintf("%s • %s", when, formatter.Description(i.event))
}

func eventItems(events []models.CalendarEvent) []list.Item {
	items := make([]list.Item, len(events))
	for i, e := range events {
		items[i] = eventItem{event: e}
	}
	return items
}
