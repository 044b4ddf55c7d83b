package ratelimit

import "time"

// Window is a fixed time bucket bounding outbound volume.
type Window struct {
	Name     string
	Duration time.Duration
	Limit    int
}

// Config defines per-window thresholds. A zero limit disables that window.
type Config struct {
	PerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	PerHour   int `env:"RATE_LIMIT_PER_HOUR" envDefault:"100"`
	PerDay    int `env:"RATE_LIMIT_PER_DAY" envDefault:"1000"`
}

func (c Config) windows() []Window {
	var ws []Window
	if c.PerMinute > 0 {
		ws = append(ws, Window{Name: "minute", Duration: time.Minute, Limit: c.PerMinute})
	}
	if c.PerHour > 0 {
		ws = append(ws, Window{Name: "hour", Duration: time.Hour, Limit: c.PerHour})
	}
	if c.PerDay > 0 {
		ws = append(ws, Window{Name: "day", Duration: 24 * time.Hour, Limit: c.PerDay})
	}
	return ws
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed bool
	Window  string    // Name of the window that denied the request, empty when allowed
	ResetAt time.Time // When the denying window rolls over
}

// RetryAfter returns how long to wait before the check can succeed.
// Returns 0 when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}
