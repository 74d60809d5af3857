package controllers

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ecobhandu-be/models"
)

var registerOnce sync.Once

// RegisterValidators adds the severity and reportstatus tags to gin's validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(fieldName)
		if err = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			return models.Severity(fl.Field().String()).Valid()
		}); err != nil {
			return
		}
		err = v.RegisterValidation("reportstatus", func(fl validator.FieldLevel) bool {
			return models.ReportStatus(fl.Field().String()).Valid()
		})
	})
	return err
}

// fieldName reports fields by their json or form name in validation errors.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
