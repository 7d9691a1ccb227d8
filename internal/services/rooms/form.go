package rooms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/crawdale/hotel/internal/db/models"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Form field names posted by the admin rooms page.
const (
	FieldID         = "id"
	FieldHotelID    = "hotel_id"
	FieldRoomNumber = "room_number"
	FieldRoomType   = "room_type"
	FieldCapacity   = "capacity"
	FieldBasePrice  = "base_price"
	FieldStatus     = "status"
	FieldIsActive   = "is_active"
)

// ErrInvalidInput is returned when a submitted form fails coercion or validation.
var ErrInvalidInput = errors.New("invalid input")

// RoomForm is the raw form as submitted. A nil field was not present in the form.
type RoomForm struct {
	ID         *string `mapstructure:"id"`
	HotelID    *string `mapstructure:"hotel_id"`
	RoomNumber *string `mapstructure:"room_number"`
	RoomType   *string `mapstructure:"room_type"`
	Capacity   *string `mapstructure:"capacity"`
	BasePrice  *string `mapstructure:"base_price"`
	Status     *string `mapstructure:"status"`
	IsActive   *string `mapstructure:"is_active"`
}

// DecodeForm reads the room fields out of values. When a key repeats, the last
// value wins, so a hidden "off" input followed by a checkbox reads as the checkbox.
func DecodeForm(values url.Values) (RoomForm, error) {
	flat := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		flat[key] = vals[len(vals)-1]
	}

	var form RoomForm
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &form,
		TagName: "mapstructure",
	})
	if err != nil {
		return RoomForm{}, fmt.Errorf("create form decoder: %w", err)
	}
	if err := decoder.Decode(flat); err != nil {
		return RoomForm{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return form, nil
}

func value(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

// RoomID returns the trimmed id field or an error when it is missing.
func (f RoomForm) RoomID() (string, error) {
	id := CleanText(value(f.ID))
	if id == nil {
		return "", fmt.Errorf("%w: missing room id", ErrInvalidInput)
	}
	return *id, nil
}

type createInput struct {
	HotelID        *string `form:"hotel_id"`
	RoomNumber     *string `form:"room_number" validate:"required"`
	RoomType       *string `form:"room_type" validate:"required"`
	Capacity       int     `form:"capacity" validate:"gt=0"`
	BasePriceCents *int64  `form:"base_price" validate:"required,gt=0"`
	Status         string  `form:"status" validate:"room_status"`
	IsActive       bool    `form:"is_active"`
}

type patchInput struct {
	HotelID        *string `form:"hotel_id"`
	RoomNumber     *string `form:"room_number"`
	RoomType       *string `form:"room_type"`
	Capacity       *int    `form:"capacity" validate:"omitempty,gt=0"`
	BasePriceCents *int64  `form:"base_price" validate:"omitempty,gte=0"`
	Status         *string `form:"status" validate:"omitempty,room_status"`
	IsActive       *bool   `form:"is_active"`
}

// NewValidator returns a validator that reports errors by form field name and
// knows the room_status tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("room_status", func(fl validator.FieldLevel) bool {
		return isRoomStatus(fl.Field().String())
	})
	return v
}

func isRoomStatus(status string) bool {
	for _, s := range models.RoomStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ToRoom coerces the form into a new room. Capacity falls back to 2, status to
// available, and the active flag to true when the form omits it. Numbers too
// large for their column are invalid.
func (f RoomForm) ToRoom(v *validator.Validate) (*models.Room, error) {
	in := createInput{
		HotelID:    CleanText(value(f.HotelID)),
		RoomNumber: CleanText(value(f.RoomNumber)),
		RoomType:   CleanText(value(f.RoomType)),
		Capacity:   models.DefaultRoomCapacity,
		Status:     models.RoomStatusAvailable,
		IsActive:   true,
	}

	var overflow []string
	switch n, err := parseInt(value(f.Capacity)); {
	case err == nil:
		in.Capacity = n
	case errors.Is(err, errOutOfRange):
		overflow = append(overflow, FieldCapacity)
	}
	switch cents, err := parseCents(value(f.BasePrice)); {
	case err == nil:
		in.BasePriceCents = &cents
	case errors.Is(err, errOutOfRange):
		overflow = append(overflow, FieldBasePrice)
	}
	if len(overflow) > 0 {
		return nil, fmt.Errorf("%w: invalid fields: %s", ErrInvalidInput, strings.Join(overflow, ", "))
	}
	if status := CleanText(value(f.Status)); status != nil {
		in.Status = *status
	}
	if f.IsActive != nil {
		in.IsActive = ParseBool(*f.IsActive)
	}

	if err := validateInput(v, in); err != nil {
		return nil, err
	}

	return &models.Room{
		HotelID:        in.HotelID,
		RoomNumber:     *in.RoomNumber,
		RoomType:       *in.RoomType,
		Capacity:       in.Capacity,
		BasePriceCents: *in.BasePriceCents,
		Status:         in.Status,
		IsActive:       in.IsActive,
	}, nil
}

// ToPatch coerces the form into a sparse patch. Only fields present with a
// usable value are included; blank, non-numeric or out-of-range numbers are left out.
func (f RoomForm) ToPatch(v *validator.Validate) (models.RoomPatch, error) {
	in := patchInput{
		HotelID:    CleanText(value(f.HotelID)),
		RoomNumber: CleanText(value(f.RoomNumber)),
		RoomType:   CleanText(value(f.RoomType)),
		Status:     CleanText(value(f.Status)),
	}
	if n, ok := ParseIntOK(value(f.Capacity)); ok {
		in.Capacity = &n
	}
	if cents, ok := ParseCents(value(f.BasePrice)); ok {
		in.BasePriceCents = &cents
	}
	if f.IsActive != nil {
		active := ParseBool(*f.IsActive)
		in.IsActive = &active
	}

	if err := validateInput(v, in); err != nil {
		return models.RoomPatch{}, err
	}

	return models.RoomPatch{
		HotelID:        in.HotelID,
		RoomNumber:     in.RoomNumber,
		RoomType:       in.RoomType,
		Capacity:       in.Capacity,
		BasePriceCents: in.BasePriceCents,
		Status:         in.Status,
		IsActive:       in.IsActive,
	}, nil
}

func validateInput(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate room form: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	sort.Strings(invalid)
	return fmt.Errorf("%w: invalid fields: %s", ErrInvalidInput, strings.Join(invalid, ", "))
}
