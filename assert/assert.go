package assert

import "github.com/oomph-ac/reckon/oerror"

// IsTrue panics with a *oerror.ReckonError if ok is false.
func IsTrue(ok bool, message string, args ...interface{}) {
	if !ok {
		panic(oerror.New(message, args...))
	}
}
