package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[\p{L}\p{N} _'.,&/-]{1,100}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

var (
	once sync.Once
	v    *validator.Validate
)

// engine returns the shared validator, reporting fields by their json names.
func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return rePhone.MatchString(fl.Field().String())
		})
	})
	return v
}

// Struct validates s by its `validate` tags and returns messages keyed by json field name.
// A nil map means s is valid.
func Struct(s any) map[string][]string {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return map[string][]string{"non_field_errors": {err.Error()}}
	}
	out := map[string][]string{}
	for _, fe := range ves {
		key := fieldPath(fe.Namespace())
		out[key] = append(out[key], message(fe))
	}
	return out
}

// fieldPath drops the top-level struct name: "registerReq.email" -> "email".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return "Ensure this field has at least " + fe.Param() + " characters."
		}
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "max":
		if fe.Kind() == reflect.String {
			return "Ensure this field has no more than " + fe.Param() + " characters."
		}
		return "Ensure this value is less than or equal to " + fe.Param() + "."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "phone":
		return "Enter a valid phone number."
	}
	return "Invalid value."
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return strings.ToLower(s), reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return s, reQ.MatchString(s)
}

// Limit parses a result limit, falling back to def and clamping to [1, max].
func Limit(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 150 {
		return "", false
	}
	return s, true
}

// Password returns the strength rules s breaks; empty means acceptable.
func Password(s string) []string {
	var problems []string
	if l := len(s); l < 8 {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	} else if l > 128 {
		problems = append(problems, "This password is too long. It must contain at most 128 characters.")
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !(hasLower && hasUpper) {
		problems = append(problems, "Password must contain both upper and lower case letters.")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one digit.")
	}
	if !hasSymbol {
		problems = append(problems, "Password must contain at least one symbol.")
	}
	return problems
}
