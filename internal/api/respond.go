package api

import (
	"encoding/json" // Decode error types
	"errors"        // Error classification
	"net/http"      // HTTP status codes
	"reflect"       // Target kinds of decode errors
	"strconv"       // Path parameter parsing

	"shop_api/internal/apperr"     // Error taxonomy
	"shop_api/internal/middleware" // Error envelope writer

	"github.com/gin-gonic/gin" // Gin web framework
)

// respondError writes err as the JSON error envelope
func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the request body into dst, reporting malformed bodies as
// validation errors
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperr.Upload(apperr.CodeTooLarge, "request body too large", err))
			return false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			// Report the offending field rather than the whole body
			respondError(c, apperr.Validation(apperr.FieldError{Field: typeErr.Field, Reason: "must be of type " + jsonType(typeErr.Type)}))
			return false
		}
		respondError(c, apperr.Validation(apperr.FieldError{Field: "body", Reason: "must be valid JSON of the expected shape"}))
		return false
	}
	return true
}

// jsonType names a Go type the way API clients know it
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map, reflect.Pointer:
		return "object"
	default:
		return t.Kind().String()
	}
}

// currentUserID returns the authenticated user ID or writes a 401
func currentUserID(c *gin.Context) (uint, bool) {
	u := middleware.CurrentUser(c) // Identity set by the auth gate
	if u == nil {
		respondError(c, apperr.ErrMissingToken)
		return 0, false
	}
	return u.ID, true
}

// positiveParam parses a path parameter as a positive integer
func positiveParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 63)
	if err != nil || v == 0 {
		respondError(c, apperr.Validation(apperr.FieldError{Field: name, Reason: "must be a positive integer"}))
		return 0, false
	}
	return v, true
}

// pageParams reads page and page_size query parameters
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))       // Current page
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20")) // Page size
	return page, size
}
