package tools

import (
	"strings"
	"time"

	"github.com/isitobservable/ynab-mcp/pkg/types"
	"github.com/isitobservable/ynab-mcp/pkg/ynab"
)

const dateLayout = "2006-01-02"

// RequireString returns the string at key, or MissingParameter when the key
// is absent or not a string.
func RequireString(args Arguments, key string) (string, error) {
	s, ok := args[key].AsString()
	if !ok {
		return "", types.MissingParameter(key)
	}
	return s, nil
}

// RequireNumber returns the number at key. Integers are widened.
func RequireNumber(args Arguments, key string) (float64, error) {
	n, ok := args[key].AsNumber()
	if !ok {
		return 0, types.MissingParameter(key)
	}
	return n, nil
}

// RequireStringList returns the strings in the list at key, silently dropping
// non-string elements. An absent or non-list value is MissingParameter; a list
// left empty after dropping is InvalidParameter.
func RequireStringList(args Arguments, key string) ([]string, error) {
	items, ok := args[key].AsList()
	if !ok {
		return nil, types.MissingParameter(key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.AsString(); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, types.InvalidParameter(key, "must contain at least one string")
	}
	return out, nil
}

func OptionalString(args Arguments, key string) (string, bool) {
	return args[key].AsString()
}

func OptionalBool(args Arguments, key string) (bool, bool) {
	return args[key].AsBool()
}

func OptionalInt(args Arguments, key string) (int, bool) {
	i, ok := args[key].AsInt()
	return int(i), ok
}

func OptionalNumber(args Arguments, key string) (float64, bool) {
	return args[key].AsNumber()
}

// ParseFlagColor maps a case-insensitive color name to a flag. "none" and the
// empty string map to ynab.FlagNone; anything else unknown reports false.
func ParseFlagColor(s string) (ynab.FlagColor, bool) {
	switch strings.ToLower(s) {
	case "red":
		return ynab.FlagRed, true
	case "orange":
		return ynab.FlagOrange, true
	case "yellow":
		return ynab.FlagYellow, true
	case "green":
		return ynab.FlagGreen, true
	case "blue":
		return ynab.FlagBlue, true
	case "purple":
		return ynab.FlagPurple, true
	case "none", "":
		return ynab.FlagNone, true
	default:
		return ynab.FlagNone, false
	}
}

func ParseClearedStatus(s string) (ynab.ClearedStatus, bool) {
	switch strings.ToLower(s) {
	case "cleared":
		return ynab.Cleared, true
	case "uncleared":
		return ynab.Uncleared, true
	case "reconciled":
		return ynab.Reconciled, true
	default:
		return "", false
	}
}

// ParseDate parses YYYY-MM-DD as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// The helpers below turn optional arguments into the typed values handlers
// need, failing with InvalidParameter when a present value is unusable.

func optionalStringPtr(args Arguments, key string) *string {
	if s, ok := OptionalString(args, key); ok {
		return &s
	}
	return nil
}

func optionalDate(args Arguments, key string) (time.Time, bool, error) {
	s, ok := OptionalString(args, key)
	if !ok {
		return time.Time{}, false, nil
	}
	t, ok := ParseDate(s)
	if !ok {
		return time.Time{}, false, types.InvalidParameter(key, "must be a date in YYYY-MM-DD format")
	}
	return t, true, nil
}

func optionalCleared(args Arguments, key string) (*ynab.ClearedStatus, error) {
	s, ok := OptionalString(args, key)
	if !ok {
		return nil, nil
	}
	status, ok := ParseClearedStatus(s)
	if !ok {
		return nil, types.InvalidParameter(key, "must be one of cleared, uncleared, reconciled")
	}
	return &status, nil
}

func optionalFlag(args Arguments, key string) (*ynab.FlagColor, error) {
	s, ok := OptionalString(args, key)
	if !ok {
		return nil, nil
	}
	color, ok := ParseFlagColor(s)
	if !ok {
		return nil, types.InvalidParameter(key, "must be one of red, orange, yellow, green, blue, purple, none")
	}
	return &color, nil
}

// requireMonth accepts YYYY-MM-DD or the literal "current".
func requireMonth(args Arguments, key string) (string, error) {
	month, err := RequireString(args, key)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(month, "current") {
		return "current", nil
	}
	if _, ok := ParseDate(month); !ok {
		return "", types.InvalidParameter(key, "must be a date in YYYY-MM-DD format or 'current'")
	}
	return month, nil
}
