package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"faultdesk/internal/models"
)

var registerOnce sync.Once

// enumValidators binds the closed enums to validator tags used in request structs.
var enumValidators = map[string]validator.Func{
	"process_type": func(fl validator.FieldLevel) bool {
		return models.ProcessType(fl.Field().String()).Valid()
	},
	"scenario_tag": func(fl validator.FieldLevel) bool {
		return models.ScenarioTag(fl.Field().String()).Valid()
	},
	"priority": func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).Valid()
	},
	"resolution_status": func(fl validator.FieldLevel) bool {
		return models.ResolutionStatus(fl.Field().String()).Valid()
	},
	"role": func(fl validator.FieldLevel) bool {
		_, ok := models.ParseRole(fl.Field().String())
		return ok
	},
	"note_color": func(fl validator.FieldLevel) bool {
		return models.NoteColor(fl.Field().String()).Valid()
	},
	"font_size": func(fl validator.FieldLevel) bool {
		return models.FontSize(fl.Field().String()).Valid()
	},
}

// RegisterValidators installs the enum validators on gin's default validator.
// It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, fn := range enumValidators {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}
