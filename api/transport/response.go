package transport

import "encoding/json"

// ErrorBody is the shape of every non-2xx response.
type ErrorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Path       string `json:"path"`
}

// NewErrorBody builds an error payload for the request path.
func NewErrorBody(status int, message, path string) ErrorBody {
	return ErrorBody{
		Error:      message,
		StatusCode: status,
		Path:       path,
	}
}

// Welcome is returned by GET /.
type Welcome struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs,omitempty"`
	Health  string `json:"health"`
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorBody) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
