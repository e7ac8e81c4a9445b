package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/voxcal/voxcal/internal/config"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// localDateTime is the layout Google Calendar expects when the timezone is
// passed separately. Embedding a UTC offset here would shift local meeting
// times.
const localDateTime = "2006-01-02T15:04:05"

const defaultDurationMinutes = 60

// EventRequest carries a fully collected detail record, resolved to a start
// instant, to the calendar provider.
type EventRequest struct {
	Name            string
	Title           string
	Start           time.Time
	DurationMinutes int
	Timezone        string
}

type CreatedEvent struct {
	Id       string
	HtmlLink string
	Message  string
}

// Client is the boundary to the external calendar provider. The caller must
// have checked readiness; the client only formats and submits.
type Client interface {
	// CreateEvent inserts the event using the session's OAuth token when
	// given, or the service account otherwise.
	CreateEvent(ctx context.Context, token *oauth2.Token, req EventRequest) (*CreatedEvent, error)
}

type CalendarClient struct {
	auth          *Auth
	calendarId    string
	attendeeEmail string
}

func NewCalendarClient(auth *Auth, cfg config.Google) *CalendarClient {
	return &CalendarClient{
		auth:          auth,
		calendarId:    cfg.CalendarId,
		attendeeEmail: cfg.AttendeeEmail,
	}
}

func (c *CalendarClient) CreateEvent(ctx context.Context, token *oauth2.Token, req EventRequest) (*CreatedEvent, error) {
	var source oauth2.TokenSource
	if token != nil {
		source = c.auth.TokenSource(ctx, token)
	} else {
		var err error
		source, err = c.auth.ServiceAccountTokenSource(ctx)
		if err != nil {
			return nil, err
		}
	}

	service, err := gcal.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("unable to build Calendar client: %w", err)
	}

	event := buildEvent(req, c.attendeeEmail)
	log.Debugf("inserting event %q into calendar %s", event.Summary, c.calendarId)

	call := service.Events.Insert(c.calendarId, event)
	if c.attendeeEmail != "" {
		call = call.SendUpdates("all")
	} else {
		call = call.SendUpdates("none")
	}
	created, err := call.Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}

	log.Infof("calendar event created: %s (%s)", created.Id, created.Summary)
	return &CreatedEvent{
		Id:       created.Id,
		HtmlLink: created.HtmlLink,
		Message:  fmt.Sprintf("Meeting '%s' scheduled for %s.", event.Summary, req.Start.Format("Monday, January 2 at 15:04")),
	}, nil
}

// buildEvent applies the creation-time defaults: one hour when no duration
// was collected and "Meeting with {name}" when no title was.
func buildEvent(req EventRequest, attendeeEmail string) *gcal.Event {
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = defaultDurationMinutes
	}
	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Meeting with %s", req.Name)
	}

	start := req.Start
	end := start.Add(time.Duration(duration) * time.Minute)

	event := &gcal.Event{
		Summary:     title,
		Description: fmt.Sprintf("Meeting with %s", req.Name),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(localDateTime),
			TimeZone: req.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(localDateTime),
			TimeZone: req.Timezone,
		},
	}
	if attendeeEmail != "" {
		event.Attendees = []*gcal.EventAttendee{{Email: attendeeEmail}}
	}
	return event
}
