package envar

import "os"

const (
	// DelaycamDelay overrides delay.seconds from the config file
	DelaycamDelay = "DELAYCAM_DELAY"
)

func Getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}
