// Package integrations holds outbound connectors to third-party
// services.
package integrations

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mserjo/bossy-sub005/internal/domain"
)

// CalendarClient mirrors group tasks with due dates into a shared
// Google calendar so members see deadlines next to their own events.
type CalendarClient struct {
	svc        *calendar.Service
	calendarID string
}

func NewCalendarClient(ctx context.Context, credentialsPath, calendarID string) (*CalendarClient, error) {
	svc, err := calendar.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &CalendarClient{svc: svc, calendarID: calendarID}, nil
}

// ScheduleTask creates an all-day event on the task's due date. Tasks
// without a due date have nothing to schedule.
func (c *CalendarClient) ScheduleTask(ctx context.Context, t domain.Task) error {
	if t.DueAt == nil {
		return nil
	}

	day := t.DueAt.UTC().Format("2006-01-02")
	event := &calendar.Event{
		Summary:     t.Title,
		Description: t.Description,
		Start:       &calendar.EventDateTime{Date: day},
		End:         &calendar.EventDateTime{Date: nextDay(*t.DueAt)},
		Source: &calendar.EventSource{
			Title: "task " + t.ID,
		},
	}

	_, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}

func nextDay(t time.Time) string {
	return t.UTC().AddDate(0, 0, 1).Format("2006-01-02")
}
