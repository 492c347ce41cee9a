package handler

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"speedrun/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request DTOs and
// makes field errors report JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		v.RegisterValidation("runtime", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRunTime(fl.Field().String())
			return err == nil
		})
		v.RegisterValidation("releasedate", func(fl validator.FieldLevel) bool {
			_, err := models.ParseReleaseDate(fl.Field().String())
			return err == nil
		})
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "runtime":
		return "must be formatted as HH:MM:SS"
	case "releasedate":
		return "must be YYYY-MM-DD or Month D, YYYY"
	default:
		return "is invalid"
	}
}

// idParam reads a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// optionalID parses an optional positive integer query parameter.
func optionalID(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	v := uint(id)
	return &v, nil
}

// optionalStatus parses an optional record status query parameter.
func optionalStatus(c *gin.Context) (*models.RecordStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	st, err := models.ParseRecordStatus(raw)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
