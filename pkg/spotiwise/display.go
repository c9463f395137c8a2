package spotiwise

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayout renders date-typed attributes.
const dateLayout = "01/02/2006"

// sortKeys are listed first, in this order, wherever attributes are rendered.
var sortKeys = []string{"id", "name"}

// displayer is implemented by every entity. displayKeys lists the
// attributes shown in String and CSV output; displayValue returns the
// current value of one of them.
type displayer interface {
	kindName() string
	displayKeys() []string
	displayValue(key string) interface{}
}

// priority ranks a key by the part before any ':' (case-insensitive).
func priority(key string) int {
	prefix := strings.ToLower(strings.SplitN(key, ":", 2)[0])
	for i, k := range sortKeys {
		if k == prefix {
			return i
		}
	}
	return len(sortKeys)
}

// sortedKeys returns keys ordered by priority, otherwise keeping declaration order.
func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		return priority(out[i]) < priority(out[j])
	})
	return out
}

// truthy reports whether v should be rendered at all.
func truthy(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case bool:
		return v
	case time.Time:
		return !v.IsZero()
	case *Track:
		return v != nil
	case *Album:
		return v != nil
	case *Artist:
		return v != nil
	case *User:
		return v != nil
	case *PlaybackContext:
		return v != nil
	default:
		return true
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(dateLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// repr renders d as Kind(key=value, ...), listing only truthy attributes.
func repr(d displayer) string {
	parts := make([]string, 0, len(d.displayKeys()))
	for _, key := range sortedKeys(d.displayKeys()) {
		v := d.displayValue(key)
		if !truthy(v) {
			continue
		}

		var val string
		switch v := v.(type) {
		case displayer:
			val = repr(v)
		case string, time.Time:
			val = strconv.Quote(formatValue(v))
		default:
			val = formatValue(v)
		}
		parts = append(parts, strings.ReplaceAll(key, "_", " ")+"="+val)
	}
	return d.kindName() + "(" + strings.Join(parts, ", ") + ")"
}

// rowValues returns the non-empty display values of d in column order.
// Nested entities contribute their own row values in place.
func rowValues(d displayer) []string {
	var row []string
	for _, key := range sortedKeys(d.displayKeys()) {
		v := d.displayValue(key)
		if !truthy(v) {
			continue
		}
		if nested, ok := v.(displayer); ok {
			row = append(row, rowValues(nested)...)
			continue
		}
		row = append(row, formatValue(v))
	}
	return row
}

// columns returns the CSV header columns for d. The "track" attribute is
// replaced by the track's own columns.
func columns(d displayer) []string {
	var cols []string
	for _, key := range sortedKeys(d.displayKeys()) {
		if key == "track" {
			cols = append(cols, sortedKeys(trackKeys)...)
			continue
		}
		cols = append(cols, key)
	}
	return cols
}
