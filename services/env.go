package services

import (
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.WithFields(log.Fields{"variable": name, "value": raw}).Warn("Invalid integer, using default")
		return def
	}
	return v
}

func envBool(name string, def bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithFields(log.Fields{"variable": name, "value": raw}).Warn("Invalid boolean, using default")
		return def
	}
	return v
}

// envDuration accepts Go durations ("90s", "24h") or a bare number of seconds.
// Zero and negative values fall back to def.
func envDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if secs, atoiErr := strconv.Atoi(raw); atoiErr == nil {
		d, err = time.Duration(secs)*time.Second, nil
	}
	if err != nil || d <= 0 {
		log.WithFields(log.Fields{"variable": name, "value": raw}).Warn("Invalid duration, using default")
		return def
	}
	return d
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
