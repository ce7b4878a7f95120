package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/embassygq/consular-api/internal/model"
)

var nationalIDPattern = regexp.MustCompile(`^[A-Z0-9-]{5,20}$`)

// RegisterValidations installs domain validation tags on gin's binding
// engine. Call once at startup.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("apttype", func(fl validator.FieldLevel) bool {
		return model.AppointmentType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("natid", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})
}
