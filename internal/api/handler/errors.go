package handler

// ErrorResponse is the error envelope rendered for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
