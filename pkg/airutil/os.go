package airutil

import (
	"os"

	"github.com/drone/envsubst"
)

// Expand substitutes ${var} references in s, preferring
// vars over the process environment.
func Expand(s string, vars map[string]string) (string, error) {
	return envsubst.Eval(s, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}
