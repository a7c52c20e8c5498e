package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations wires domain validations into gin's binding
// engine. Call once at startup.
func RegisterCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("futuredate", futureDate)
	}
}

// futureDate accepts a zero time (meaning "use the default") or any instant
// after now.
func futureDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return date.IsZero() || date.After(time.Now())
}
