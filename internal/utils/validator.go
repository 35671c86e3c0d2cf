package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

var foodCategories = map[string]struct{}{
	"vegetable": {}, "fruit": {}, "grain": {}, "dairy": {}, "meat": {}, "fish": {}, "legume": {},
	"nut": {}, "spice": {}, "oil": {}, "sweetener": {}, "beverage": {}, "other": {},
}

func InitValidator() {
	Validate = NewValidator()
}

func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names in validation errors
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("foodcategory", func(fl validator.FieldLevel) bool {
		_, ok := foodCategories[fl.Field().String()]
		return ok
	})
	return v
}
