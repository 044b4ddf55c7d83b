package notification

import (
	"strings"
	"time"
)

const (
	// DefaultTTL is how long a notification lives when the type carries no
	// special handling.
	DefaultTTL = 30 * 24 * time.Hour

	// SecurityTTL is the shortened lifetime for security-related
	// notifications; stale security alerts are worse than none.
	SecurityTTL = 7 * 24 * time.Hour
)

// categoryRule maps type keywords onto a category. Rules are evaluated in
// order and the first keyword match wins, so "deadline_approaching" resolves
// to reminder even though other keywords could plausibly claim it.
type categoryRule struct {
	keywords []string
	category Category
}

var categoryRules = []categoryRule{
	{[]string{"achievement", "badge", "level"}, CategoryAchievement},
	{[]string{"friend", "team", "message"}, CategorySocial},
	{[]string{"module", "course"}, CategoryLearning},
	{[]string{"security", "password", "verification"}, CategorySecurity},
	{[]string{"reminder", "event", "deadline"}, CategoryReminder},
}

// CategoryForType derives a category from a notification type using the
// ordered keyword table. Types matching no rule fall into system.
func CategoryForType(notifType string) Category {
	t := strings.ToLower(notifType)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.category
			}
		}
	}
	return CategorySystem
}

// ExpiryForType computes the default expiry for a notification created at
// createdAt: 30 days, shortened to 7 for security-related types.
func ExpiryForType(notifType string, createdAt time.Time) time.Time {
	if strings.Contains(strings.ToLower(notifType), "security") {
		return createdAt.Add(SecurityTTL)
	}
	return createdAt.Add(DefaultTTL)
}
