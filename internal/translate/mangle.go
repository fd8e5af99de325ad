package translate

import (
	"fmt"
	"strings"
)

// Mangle produces the `_T` + length-prefixed mangled name for symbol
// name defined in module moduleName (dotted, e.g. "a.b").
// Example: module "a.b", symbol "f" -> "_T1a1b1f".
func Mangle(moduleName, name string) string {
	var b strings.Builder
	b.WriteString("_T")
	if moduleName != "" {
		for _, part := range strings.Split(moduleName, ".") {
			fmt.Fprintf(&b, "%d%s", len(part), part)
		}
	}
	fmt.Fprintf(&b, "%d%s", len(name), name)
	return b.String()
}
