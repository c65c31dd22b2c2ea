package core

import (
	"encoding/json"
	"net/http"
)

// Response renders itself to an HTTP response.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// JSONResponse is the standard JSON response envelope. Data is always
// present so collection endpoints render empty lists as [] rather than
// dropping the field.
type JSONResponse struct {
	Data  any          `json:"data"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status  int
	headers http.Header
	body    JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, vs := range j.headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 response with the given payload.
func JSON(data any) Response {
	return JSONWithStatus(http.StatusOK, data)
}

// JSONWithStatus creates a response with an explicit status code.
func JSONWithStatus(status int, data any) Response {
	return jsonResponse{status: status, body: JSONResponse{Data: data}}
}

// JSONError creates an error response from err. HTTPError values map to
// their status and code; anything else becomes a 500 internal_error without
// leaking the underlying message.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_error", Message: http.StatusText(status)}
	var headers http.Header

	if httpErr, ok := err.(HTTPError); ok {
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = httpErr.Message
		if detail.Message == "" {
			detail.Message = http.StatusText(status)
		}
		headers = httpErr.Headers
	}

	return jsonResponse{status: status, headers: headers, body: JSONResponse{Error: detail}}
}

// Render writes resp, falling back to a bare 500 if rendering itself fails.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
