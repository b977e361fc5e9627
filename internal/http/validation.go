package http

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"orga/internal/domain"
)

var registerOnce sync.Once

// registerValidators agrega los tags `role` y `plan` al validador de gin.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParseRole(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
			_, ok := domain.ParsePlan(fl.Field().String())
			return ok
		})
	})
}
