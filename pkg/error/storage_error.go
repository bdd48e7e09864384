package error

import "net/http"

type StorageError string

func (err StorageError) Error() string {
	return string(err)
}

func (err StorageError) ErrCode() string {
	return "STORAGE_ERROR"
}

func (err StorageError) StatusCode() int {
	return http.StatusInternalServerError
}
