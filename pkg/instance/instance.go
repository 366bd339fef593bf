package instance

import "os"

// GetID names the running process in logs. Platforms that expose a dyno or
// pod name win over the local default.
func GetID() string {
	for _, key := range []string{"RENTALS_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
