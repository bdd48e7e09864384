package utils

// PanicIfNeeded panics on error; el middleware de recovery lo traduce a una
// respuesta HTTP tipada.
func PanicIfNeeded(err interface{}) {
	if err != nil {
		panic(err)
	}
}
