package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/video-guides/internal/apperror"
	"github.com/sakif/video-guides/internal/platform"
)

// jsonFieldName makes validator report fields by their json tag.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// translateValidation turns the first validator failure into an AppError
// with a message fit for the form. URL failures reuse the platform
// package's wording so the server and the inline check say the same thing.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("body", "Invalid request")
	}

	fe := verrs[0]
	field := fe.Field()

	if field == "videoUrl" {
		switch fe.Tag() {
		case "required":
			return apperror.ValidationFailed(field, platform.MsgEmpty)
		case "url":
			return apperror.ValidationFailed(field, platform.MsgMalformed)
		}
	}

	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s is required", field))
	case "max":
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	}
	return apperror.ValidationFailed(field, fmt.Sprintf("%s is invalid", field))
}
