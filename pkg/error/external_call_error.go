package error

import "net/http"

type ExternalCallError string

func (err ExternalCallError) Error() string {
	return string(err)
}

func (err ExternalCallError) ErrCode() string {
	return "EXTERNAL_CALL_ERROR"
}

func (err ExternalCallError) StatusCode() int {
	return http.StatusBadGateway
}
