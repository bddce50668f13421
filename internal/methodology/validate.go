package methodology

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === struct tags ===
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ValidationError{fieldPath(fe.Namespace()), fmt.Sprintf("failed '%s' (param=%s)", fe.Tag(), fe.Param())}
		}
		return err
	}

	// === Breakpoints ===
	bp := cfg.Breakpoints
	if bp.ValueLowPercentile >= bp.ValueHighPercentile {
		return ValidationError{"breakpoints", "value_low_percentile must be < value_high_percentile"}
	}

	// === Universe ===
	if !contains(cfg.Universe.Exchanges, bp.Exchange) {
		return ValidationError{"breakpoints.exchange", fmt.Sprintf("%q must be one of universe.exchanges", bp.Exchange)}
	}

	return nil
}

// fieldPath strips the root struct name: "Config.breakpoints.exchange" → "breakpoints.exchange"
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
