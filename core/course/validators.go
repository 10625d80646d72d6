package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

func init() {
	_ = core.Validate.RegisterValidation("courselevel", levelValidation)
	core.RegisterCustomTranslation("courselevel", "{0} must be one of beginner, intermediate or advanced")
}

func levelValidation(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	for _, l := range AllLevels {
		if level == l {
			return true
		}
	}
	return false
}
