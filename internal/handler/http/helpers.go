package http

import (
	"encoding/json"
	"net/http"

	"github.com/utafrali/plantstore/pkg/httputil"
	"github.com/utafrali/plantstore/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst and writes a 400 response when
// it is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

// decodeValid is decodeJSON for request bodies carrying validate tags. Field
// errors are reported as VALIDATION_ERROR.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
