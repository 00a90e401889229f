package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/middleware"
	"precinct/internal/service"
	"precinct/pkg/validator"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// DataResponse wraps the entity or list a request produced
type DataResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// JSONResponse sends a JSON response and ensures slices are never null.
// Frontends expect [] for empty lists.
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(normalizeSlices(data))
}

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)
	timeType := reflect.TypeOf(time.Time{})

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return data
		}
		elem := v.Elem()
		normalized := normalizeSlices(elem.Interface())
		result := reflect.New(elem.Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() == reflect.Interface && elem.IsNil() {
				continue
			}
			result.Index(i).Set(reflect.ValueOf(normalizeSlices(elem.Interface())))
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == timeType {
			return data
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !v.Type().Field(i).IsExported() {
				continue
			}
			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct:
				result.Field(i).Set(reflect.ValueOf(normalizeSlices(field.Interface())))
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}

	return data
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(normalizeSlices(payload)); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithData answers an action with its message and resulting entity
func respondWithData(w http.ResponseWriter, code int, message string, data any) {
	respondWithJSON(w, code, DataResponse{Message: message, Data: normalizeSlices(data)})
}

// respondWithList answers a list request
func respondWithList(w http.ResponseWriter, items any) {
	respondWithJSON(w, http.StatusOK, DataResponse{Data: normalizeSlices(items)})
}

// respondWithAppError maps an error returned by a service to its status code.
// Unclassified errors are logged and hidden from the client.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, service.ErrUserInactive):
		respondWithError(w, http.StatusForbidden, "User account is inactive")
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		respondWithJSON(w, apperr.HTTPStatus(err), ErrorResponse{Error: appErr.Message, Field: appErr.Field})
		return
	}

	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation(ErrMsgInvalidRequestBody)
	}
	return validator.ValidateStruct(dst)
}

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.FieldValidation(name, "Invalid "+name)
	}
	return uint(id), nil
}

// actor returns the authenticated user id. Routes behind Authenticate always
// carry one.
func actor(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
	}
	return userID, ok
}

// pagination reads page and limit query parameters
func pagination(r *http.Request) (limit, offset int) {
	page := 1
	limit = 50
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return limit, (page - 1) * limit
}
