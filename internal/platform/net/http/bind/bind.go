// Package bind decodes request bodies and owns the shared struct validator
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MaxBody caps JSON and document bodies
const MaxBody int64 = 1 << 20

// ValidatorSvc pairs the validator with its english translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *ValidatorSvc
)

// Get returns the process validator. Messages name fields by their json tag
func Get() *ValidatorSvc {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		translate(v, trans, "min", "{0} must be at least {1}")
		translate(v, trans, "max", "{0} must be at most {1}")

		// component keys are "<name>:<TYPE>", so names cannot hold ':' or spaces
		_ = v.RegisterValidation("rule_name", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsAny(s, ": \t\n")
		})
		translate(v, trans, "rule_name", "{0} must be a non-empty name without ':' or whitespace")

		svc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return svc
}

func translate(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// Messages translates every validation failure in err, in field order
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Translate(Get().Translator))
	}
	return out
}

// ParseJSON decodes a single JSON object into T, rejecting unknown fields, then validates it
func ParseJSON[T any](r *http.Request) (T, error) {
	var v T
	defer closeBody(r)

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, perr.JSONErrf("empty body")
		}
		return v, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return v, perr.JSONErrf("unexpected trailing data")
	}

	if err := Get().Validator.Struct(v); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			logger.Get().Error().Err(err).Msg("validator misuse")
			return v, perr.JSONErrf("validation error")
		}
		return v, perr.Validation(Messages(err)[0], strings.Join(Messages(err), "\n"))
	}
	return v, nil
}

// Text reads the whole body. maxBytes <= 0 means MaxBody
func Text(r *http.Request, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = MaxBody
	}
	defer closeBody(r)

	b, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read body")
	}
	if int64(len(b)) > maxBytes {
		return "", perr.InvalidArgf("body exceeds %d bytes", maxBytes)
	}
	return string(b), nil
}

func closeBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		logger.Get().Warn().Err(err).Msg("close request body")
	}
}
