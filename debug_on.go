//go:build semdebug

package semantic

import "fmt"

const debug = true

func debugAssert(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("semantic: "+format, args...))
	}
}
