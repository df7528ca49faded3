package scheduling

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrValidation is matched by every error Draft.Validate returns.
var ErrValidation = errors.New("validation failed")

type validationError struct{ msg string }

func (e *validationError) Error() string        { return e.msg }
func (e *validationError) Is(target error) bool { return target == ErrValidation }

func newValidationError(msg string) error { return &validationError{msg: msg} }

var (
	ErrTitleRequired     = newValidationError("title is required")
	ErrStartDateRequired = newValidationError("start date is required")
	ErrStartTimeRequired = newValidationError("start time is required")
	ErrEndTimeRequired   = newValidationError("end time is required")
	ErrInvalidStart      = newValidationError("invalid start date or time")
	ErrInvalidEnd        = newValidationError("invalid end date or time")
	ErrEndNotAfterStart  = newValidationError("end time must be after start time")
	ErrUnknownReference  = newValidationError("patient or category does not exist")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Draft is the user-editable form of an appointment. Dates are YYYY-MM-DD,
// times HH:MM; EndDate defaults to StartDate.
type Draft struct {
	Title       string     `json:"title"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Location    string     `json:"location"`
	Notes       string     `json:"notes"`
	StartDate   string     `json:"start_date"`
	StartTime   string     `json:"start_time"`
	EndDate     string     `json:"end_date,omitempty"`
	EndTime     string     `json:"end_time"`
	Attachments []string   `json:"attachments,omitempty"`
}

// Payload is a validated Draft ready to be persisted.
type Payload struct {
	Title       string
	PatientID   *uuid.UUID
	CategoryID  *uuid.UUID
	Location    *string
	Notes       *string
	Start       time.Time
	End         time.Time
	Attachments []string
}

// Validate checks the draft and interprets its dates and times in loc.
// Checks run in a fixed order and the first failure is returned.
func (d Draft) Validate(loc *time.Location) (*Payload, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	startDate := strings.TrimSpace(d.StartDate)
	if startDate == "" {
		return nil, ErrStartDateRequired
	}
	startTime := strings.TrimSpace(d.StartTime)
	if startTime == "" {
		return nil, ErrStartTimeRequired
	}
	endTime := strings.TrimSpace(d.EndTime)
	if endTime == "" {
		return nil, ErrEndTimeRequired
	}
	endDate := strings.TrimSpace(d.EndDate)
	if endDate == "" {
		endDate = startDate
	}

	start, err := parseDateTime(startDate, startTime, loc)
	if err != nil {
		return nil, ErrInvalidStart
	}
	end, err := parseDateTime(endDate, endTime, loc)
	if err != nil {
		return nil, ErrInvalidEnd
	}
	if !end.After(start) {
		return nil, ErrEndNotAfterStart
	}

	return &Payload{
		Title:       title,
		PatientID:   d.PatientID,
		CategoryID:  d.CategoryID,
		Location:    optionalText(d.Location),
		Notes:       optionalText(d.Notes),
		Start:       start,
		End:         end,
		Attachments: cleanAttachments(d.Attachments),
	}, nil
}

// DraftFrom prefills an edit form from a stored appointment, rendering
// its instants in loc.
func DraftFrom(a *Appointment, loc *time.Location) Draft {
	d := Draft{
		Title:       deref(a.Title),
		PatientID:   a.PatientID,
		CategoryID:  a.CategoryID,
		Location:    deref(a.Location),
		Notes:       deref(a.Notes),
		Attachments: a.Attachments,
	}
	if a.Start != nil {
		s := a.Start.In(loc)
		d.StartDate, d.StartTime = s.Format(dateLayout), s.Format(timeLayout)
	}
	if a.End != nil {
		e := a.End.In(loc)
		d.EndDate, d.EndTime = e.Format(dateLayout), e.Format(timeLayout)
	}
	return d
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err == nil {
		return t, nil
	}
	// Browsers send HH:MM:SS when a step below one minute is set.
	return time.ParseInLocation(dateLayout+" 15:04:05", date+" "+clock, loc)
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanAttachments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
