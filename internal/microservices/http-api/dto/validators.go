package dto

import (
	"reflect"
	"strings"

	"bukinn/internal/otp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the phone and otp tags to gin's validator and
// makes validation errors report JSON field names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				continue
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return otp.ValidPhone(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otp.ValidCode(fl.Field().String())
	})
}
