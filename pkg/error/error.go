package error

// GenericError es el contrato común de los errores tipados del paquete; el
// middleware de recovery lo usa para mapear errores a respuestas HTTP.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
