package cryptox

import "sync"

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// SetPepper configures a process-wide secret appended to every password
// before hashing. Changing it invalidates every argon2id digest already
// stored, so it must be stable for the lifetime of the database.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = p
}

func getPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}
