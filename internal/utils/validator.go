package utils

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	couponPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
	hexColor      = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// RegisterValidators adds the custom binding tags used by request schemas.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("coupon", func(fl validator.FieldLevel) bool {
		return couponPattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColor.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		digits := NormalizePhone(fl.Field().String())
		return len(strings.TrimPrefix(digits, "+")) >= 7
	})
}

// NormalizePhone strips everything but digits, keeping a leading plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	plus := strings.HasPrefix(phone, "+")
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	if plus {
		return "+" + digits
	}
	return digits
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}
