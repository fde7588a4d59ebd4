package handler

// DataResponse wraps every successful payload.
type DataResponse struct {
	Data any `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
