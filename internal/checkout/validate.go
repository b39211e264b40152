package checkout

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tokokriya/storefront/internal/order"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]{2,}$`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,13}[0-9]$`)
	postalPattern = regexp.MustCompile(`^[0-9]{4,10}$`)
)

// NewValidator returns a validator with the storefront address rules
// registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("store_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("store_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("store_postal", func(fl validator.FieldLevel) bool {
		return postalPattern.MatchString(fl.Field().String())
	})
	return v
}

// addressRules mirrors order.Address with the validation tags attached.
type addressRules struct {
	FullName   string `validate:"required,min=2"`
	Email      string `validate:"required,store_email"`
	Phone      string `validate:"required,store_phone"`
	Street     string `validate:"required,min=3"`
	City       string `validate:"required"`
	State      string `validate:"required"`
	PostalCode string `validate:"required,store_postal"`
	Country    string `validate:"required"`
}

var fieldMessages = map[string]string{
	"FullName":   "full name is required",
	"Email":      "enter a valid email address",
	"Phone":      "enter a valid phone number",
	"Street":     "street address is required",
	"City":       "city is required",
	"State":      "state or province is required",
	"PostalCode": "enter a valid postal code",
	"Country":    "country is required",
}

// ValidateAddress checks the delivery address and returns one message per
// failing field. An empty map means the address is acceptable.
func ValidateAddress(v *validator.Validate, a order.Address) map[string]string {
	rules := addressRules{
		FullName:   strings.TrimSpace(a.FullName),
		Email:      strings.TrimSpace(a.Email),
		Phone:      strings.TrimSpace(a.Phone),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	err := v.Struct(rules)
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["address"] = "invalid address"
		return out
	}
	for _, fe := range verrs {
		field := fe.StructField()
		msg, ok := fieldMessages[field]
		if !ok {
			msg = "invalid value"
		}
		out[lowerFirst(field)] = msg
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
