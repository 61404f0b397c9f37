package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/mcpws/tool"
)

// Event represents a stored calendar event.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddEventInput represents add_calendar_event arguments.
type AddEventInput struct {
	Title       string `json:"title" description:"event title"`
	StartTime   string `json:"start_time" description:"start time, RFC3339 or 2006-01-02 15:04"`
	EndTime     string `json:"end_time,omitempty" description:"end time, defaults to one hour after start"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ListEventsInput represents list_calendar_events arguments.
type ListEventsInput struct {
	Period string `json:"period,omitempty" description:"time window" enum:"today,tomorrow,week"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func (s *Service) registerCalendar(registry *tool.Registry) error {
	if err := tool.Register[AddEventInput](registry, "add_calendar_event", "Add an event to the calendar", s.addEvent); err != nil {
		return err
	}
	return tool.Register[ListEventsInput](registry, "list_calendar_events", "List calendar events for today, tomorrow or the coming week", s.listEvents)
}

func (s *Service) addEvent(ctx context.Context, input *AddEventInput) (string, error) {
	start, err := s.parseTime(input.StartTime)
	if err != nil {
		return "", fmt.Errorf("invalid start_time: %w", err)
	}
	end := start.Add(time.Hour)
	if input.EndTime != "" {
		if end, err = s.parseTime(input.EndTime); err != nil {
			return "", fmt.Errorf("invalid end_time: %w", err)
		}
		if end.Before(start) {
			return "", fmt.Errorf("end_time %v is before start_time", input.EndTime)
		}
	}
	event := Event{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		StartTime:   start,
		EndTime:     end,
		Description: input.Description,
		Location:    input.Location,
		CreatedAt:   s.now(),
	}
	if err = s.calendar.Append(ctx, event); err != nil {
		return "", err
	}
	return fmt.Sprintf("event added: %v", formatEvent(&event)), nil
}

func (s *Service) listEvents(ctx context.Context, input *ListEventsInput) (string, error) {
	events, err := s.calendar.Load(ctx)
	if err != nil {
		return "", err
	}
	period := input.Period
	if period == "" {
		period = "today"
	}
	from, to := s.window(period)
	var matched []Event
	for _, event := range events {
		if event.StartTime.Before(to) && !event.StartTime.Before(from) {
			matched = append(matched, event)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("no events for %v", period), nil
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d event(s) for %v:\n", len(matched), period))
	for i := range matched {
		builder.WriteString("- " + formatEvent(&matched[i]) + "\n")
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

// window returns the [from, to) range of period in local time.
func (s *Service) window(period string) (time.Time, time.Time) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "tomorrow":
		return today.AddDate(0, 0, 1), today.AddDate(0, 0, 2)
	case "week":
		return today, today.AddDate(0, 0, 7)
	case "month":
		return today.AddDate(0, 0, 1-today.Day()), today.AddDate(0, 1, 1-today.Day())
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

func (s *Service) parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	location := s.now().Location()
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, value, location); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}

func formatEvent(event *Event) string {
	text := fmt.Sprintf("%v %v-%v %v", event.StartTime.Format("2006-01-02"), event.StartTime.Format("15:04"), event.EndTime.Format("15:04"), event.Title)
	if event.Location != "" {
		text += " @ " + event.Location
	}
	return text
}
