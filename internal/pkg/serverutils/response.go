// FILE: internal/pkg/serverutils/response.go
package serverutils

// Response is the envelope every endpoint replies with.
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{Message: message, Data: data}
}

// ErrorResponse carries the classified error kind next to the message so
// clients can branch without parsing text.
type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}
