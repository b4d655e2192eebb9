package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/riseandserve-go/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return models.EventType(fl.Field().String()).Valid()
	})
	return v
}

// invalidFields returns the json names of every field of v that fails its
// validate tags, in declaration order.
func invalidFields(v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"body"}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func fieldsError(fields []string) *Error {
	return Validation("missing or invalid fields: "+strings.Join(fields, ", "), fields...)
}

func parseEventID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, Validation("invalid event id", "id")
	}
	return oid, nil
}

func requireIdentity(identity models.Identity) error {
	if strings.TrimSpace(identity.Email) == "" {
		return Unauthorized("authenticated identity required")
	}
	return nil
}

// requireUserID is for operations that record or check authorship by id.
func requireUserID(identity models.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if strings.TrimSpace(identity.ID) == "" {
		return Unauthorized("authenticated user id required")
	}
	return nil
}
