// Package result writes the simulator's CSV outputs through a single
// writer goroutine fed by buffered channels, the sole cross-thread
// boundary in the system.
package result

import (
	"fmt"
	"os"
)

// ResolveDir returns a directory path suitable for this run's output:
// base itself if it does not yet exist, otherwise base with the
// smallest "_N" suffix that does not collide.
func ResolveDir(base string) (string, error) {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base, nil
	} else if err != nil {
		return "", err
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}
