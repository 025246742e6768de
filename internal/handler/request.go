package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/khaata-engine/pkg/response"
	"github.com/segyhp/khaata-engine/pkg/utils"
)

const maxBodyBytes = 1 << 20

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. On failure the 400
// response has already been written.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := v.Struct(dst); err != nil {
		response.BadRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s validation", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return "invalid request"
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func requireOwner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ownerID, ok := OwnerIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing owner")
	}
	return ownerID, ok
}

// optionalDate parses a YYYY-MM-DD value; an empty value yields the zero time.
func optionalDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return utils.ParseDate(value, loc)
}

func queryDate(w http.ResponseWriter, r *http.Request, name string, loc *time.Location) (time.Time, bool) {
	t, err := optionalDate(r.URL.Query().Get(name), loc)
	if err != nil {
		response.BadRequest(w, name+" must be a YYYY-MM-DD date")
		return time.Time{}, false
	}
	return t, true
}
