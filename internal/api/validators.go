package api

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
)

var (
	rucPattern   = regexp.MustCompile(`^\d{1,8}-\d$`)
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators agrega al validador de gin las reglas tax_rate, currency y ruc.
// Los errores de validación reportan el nombre JSON del campo.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		rules := map[string]validator.Func{
			"tax_rate": validateTaxRate,
			"currency": validateCurrency,
			"ruc":      validateRUC,
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("error registering %s validator: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func validateTaxRate(fl validator.FieldLevel) bool {
	return invoicing.TaxRate(fl.Field().Int()).Valid()
}

func validateCurrency(fl validator.FieldLevel) bool {
	return invoicing.Currency(strings.ToUpper(fl.Field().String())).Valid()
}

func validateRUC(fl validator.FieldLevel) bool {
	return rucPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}
