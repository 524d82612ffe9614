package httpdto

// Response is the uniform JSON body for the HTTP surface. The real protocol
// lives on the socket; this only serves the liveness endpoints.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func OK[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func Err(message, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   message,
		Code:    code,
	}
}
