// Package validation normalises guest and room input the way the front desk
// expects it stored.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"infinityhotel/internal/models"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct checks the `validate` tags of v and reports the first failure as a
// FieldError.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fieldErr(fe.Field(), describeTag(fe))
	}
	return err
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email format"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Email checks the address format and lower-cases it.
func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr("email", "is required")
	}
	if !emailRe.MatchString(s) {
		return "", fieldErr("email", "invalid email format")
	}
	return strings.ToLower(s), nil
}

// Name requires at least two letters, rejects digits and punctuation and
// returns the name title-cased.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 2 {
		return "", fieldErr("name", "must have at least 2 characters")
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return "", fieldErr("name", "must not contain digits")
		}
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return "", fieldErr("name", "must contain only letters and spaces")
		}
	}
	return titleCase(s), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Phone keeps the digits of s and formats a 10 or 11 digit number as
// (xx) xxxx-xxxx or (xx) xxxxx-xxxx.
func Phone(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fieldErr("phone", "is required")
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	switch len(digits) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:6], digits[6:]), nil
	case 11:
		return fmt.Sprintf("(%s) %s-%s", digits[:2], digits[2:7], digits[7:]), nil
	default:
		return "", fieldErr("phone", "must have 10 or 11 digits")
	}
}

// RoomNumber trims the number and requires it to be non-empty.
func RoomNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr("number", "is required")
	}
	return s, nil
}

// RoomType resolves s into one of the known room types.
func RoomType(s string) (models.RoomType, error) {
	t, ok := models.ParseRoomType(s)
	if !ok {
		names := make([]string, len(models.RoomTypes))
		for i, rt := range models.RoomTypes {
			names[i] = string(rt)
		}
		return "", fieldErr("type", "must be one of: "+strings.Join(names, ", "))
	}
	return t, nil
}

// Price requires a positive amount and rounds it to cents.
func Price(p float64) (float64, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fieldErr("price", "must be a valid number")
	}
	if p <= 0 {
		return 0, fieldErr("price", "must be greater than zero")
	}
	return math.Round(p*100) / 100, nil
}

// ParsePrice accepts both "150.50" and "150,50".
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fieldErr("price", "is required")
	}
	p, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fieldErr("price", "must be a valid number")
	}
	return Price(p)
}

// Date parses a YYYY-MM-DD value for the named field.
func Date(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fieldErr(field, "is required")
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fieldErr(field, "invalid format; expected YYYY-MM-DD")
	}
	return d, nil
}

// Required rejects a blank value.
func Required(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr(field, "is required")
	}
	return s, nil
}
