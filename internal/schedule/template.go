// Package schedule validates weekly trip templates and expands them into
// dated trip instances.
package schedule

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/iliyamo/transport-ticketing/internal/apperr"
	"github.com/iliyamo/transport-ticketing/internal/model"
)

// TemplateInput is the payload creating or editing a WeeklyTripTemplate.
// Horaires maps weekday names to HH:MM departure times.
type TemplateInput struct {
	CompanyID string              `json:"company_id" validate:"required"`
	AgencyID  string              `json:"agency_id" validate:"required"`
	Departure string              `json:"departure" validate:"required"`
	Arrival   string              `json:"arrival" validate:"required,nefield=Departure"`
	UnitPrice int64               `json:"unit_price" validate:"gt=0"`
	Capacity  int                 `json:"capacity" validate:"gt=0"`
	Horaires  map[string][]string `json:"horaires" validate:"required,min=1,dive,keys,weekday,endkeys,dive,hhmm"`
	Active    *bool               `json:"active,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseWeekday(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseClock(fl.Field().String())
		return ok
	})
	return v
}

var reasons = map[string]string{
	"required": "is required",
	"min":      "must not be empty",
	"gt":       "must be greater than zero",
	"nefield":  "must differ from departure",
	"weekday":  "is not a weekday name",
	"hhmm":     "is not a HH:MM time",
}

// validationError converts validator errors into an apperr.ValidationError
// keyed by JSON field path.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperr.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		reason, ok := reasons[fe.Tag()]
		if !ok {
			reason = "is invalid"
		}
		out.Fields[field] = reason
	}
	return out
}

func (in *TemplateInput) normalize() {
	in.CompanyID = strings.TrimSpace(in.CompanyID)
	in.AgencyID = strings.TrimSpace(in.AgencyID)
	in.Departure = strings.TrimSpace(in.Departure)
	in.Arrival = strings.TrimSpace(in.Arrival)
}

// schedule validates in and returns its horaires as a Schedule.
func (in *TemplateInput) schedule() (model.Schedule, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return model.Schedule{}, validationError(err)
	}
	s, err := model.ScheduleFromMap(in.Horaires)
	if err != nil {
		return model.Schedule{}, apperr.Invalid("horaires", err.Error())
	}
	if s.IsEmpty() {
		return model.Schedule{}, apperr.Invalid("horaires", "needs at least one departure time")
	}
	return s, nil
}

// NewTemplate validates in and builds a new active template.
func NewTemplate(in TemplateInput, now time.Time) (*model.WeeklyTripTemplate, error) {
	s, err := in.schedule()
	if err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &model.WeeklyTripTemplate{
		ID:        uuid.NewString(),
		CompanyID: in.CompanyID,
		AgencyID:  in.AgencyID,
		Departure: in.Departure,
		Arrival:   in.Arrival,
		UnitPrice: in.UnitPrice,
		Capacity:  in.Capacity,
		Horaires:  s,
		Active:    active,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// ApplyEdit validates in and copies its editable fields onto t.  The owning
// company and agency of a template never change.
func ApplyEdit(t *model.WeeklyTripTemplate, in TemplateInput) error {
	if in.CompanyID == "" {
		in.CompanyID = t.CompanyID
	}
	if in.AgencyID == "" {
		in.AgencyID = t.AgencyID
	}
	s, err := in.schedule()
	if err != nil {
		return err
	}
	if in.CompanyID != t.CompanyID || in.AgencyID != t.AgencyID {
		return apperr.Invalid("agency_id", "a template cannot move to another company or agency")
	}
	t.Departure = in.Departure
	t.Arrival = in.Arrival
	t.UnitPrice = in.UnitPrice
	t.Capacity = in.Capacity
	t.Horaires = s
	if in.Active != nil {
		t.Active = *in.Active
	}
	return nil
}
