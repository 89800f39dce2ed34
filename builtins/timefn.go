package builtins

import (
	"strings"
	"time"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func timeBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "time.now_ns", Arity: 0, Fn: builtinTimeNowNS},
		{Name: "time.parse_rfc3339_ns", Arity: 1, Fn: builtinTimeParseRFC3339NS},
		{Name: "time.parse_ns", Arity: 2, Fn: builtinTimeParseNS},
		{Name: "time.parse_duration_ns", Arity: 1, Fn: builtinTimeParseDurationNS},
		{Name: "time.date", Arity: 1, Fn: builtinTimeDate},
		{Name: "time.clock", Arity: 1, Fn: builtinTimeClock},
		{Name: "time.weekday", Arity: 1, Fn: builtinTimeWeekday},
		{Name: "time.add_date", Arity: 4, Fn: builtinTimeAddDate},
		{Name: "time.diff", Arity: 2, Fn: builtinTimeDiff},
	}
}

// builtinTimeNowNS returns the clock sampled at evaluation start, so two
// calls within one query observe the same instant.
func builtinTimeNowNS(bctx *Context, _ []value.Value) (value.Value, error) {
	return value.Int64(bctx.Now().UnixNano()), nil
}

func checkTimeRange(name string, t time.Time) error {
	// UnixNano is only defined inside this window.
	if t.Year() < 1678 || t.Year() > 2262 {
		return errors.Domain(name, "time outside of valid range")
	}
	return nil
}

func builtinTimeParseRFC3339NS(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("time.parse_rfc3339_ns", args, 0)
	if err != nil {
		return nil, err
	}
	t, parseErr := time.Parse(time.RFC3339Nano, s)
	if parseErr != nil {
		return nil, errors.Parse("time.parse_rfc3339_ns", "%v", parseErr)
	}
	if err := checkTimeRange("time.parse_rfc3339_ns", t); err != nil {
		return nil, err
	}
	return value.Int64(t.UnixNano()), nil
}

func builtinTimeParseNS(_ *Context, args []value.Value) (value.Value, error) {
	layout, err := stringOperand("time.parse_ns", args, 0)
	if err != nil {
		return nil, err
	}
	s, err := stringOperand("time.parse_ns", args, 1)
	if err != nil {
		return nil, err
	}
	t, parseErr := time.Parse(layout, s)
	if parseErr != nil {
		return nil, errors.Parse("time.parse_ns", "%v", parseErr)
	}
	if err := checkTimeRange("time.parse_ns", t); err != nil {
		return nil, err
	}
	return value.Int64(t.UnixNano()), nil
}

// Some policy fixtures carry the micro sign double-encoded as "Âµ".
// Accepting it costs nothing and keeps those policies working.
const mojibakeMicro = "Âµ"

func builtinTimeParseDurationNS(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("time.parse_duration_ns", args, 0)
	if err != nil {
		return nil, err
	}
	s = strings.ReplaceAll(s, mojibakeMicro, "µ")
	d, parseErr := time.ParseDuration(s)
	if parseErr != nil {
		return nil, errors.Parse("time.parse_duration_ns", "%v", parseErr)
	}
	return value.Int64(d.Nanoseconds()), nil
}

// timestampOperand accepts an integer nanosecond timestamp or a
// two-element [ns, tz] array with an IANA zone name.
func timestampOperand(name string, arg value.Value) (time.Time, error) {
	var (
		ns   int64
		zone string
	)

	switch t := arg.(type) {
	case value.Number:
		i, ok := t.Int()
		if !ok {
			return time.Time{}, errors.TypeMismatch(name, "timestamp must be integer number, got %s", string(t))
		}
		ns = i
	case *value.Array:
		if t.Len() != 2 {
			return time.Time{}, errors.TypeMismatch(name, "timestamp array must have two elements, got %d", t.Len())
		}
		n, ok := t.Elem(0).(value.Number)
		if !ok {
			return time.Time{}, errors.TypeMismatch(name, "timestamp must be integer number, got %s", t.Elem(0).Kind())
		}
		i, ok := n.Int()
		if !ok {
			return time.Time{}, errors.TypeMismatch(name, "timestamp must be integer number, got %s", string(n))
		}
		z, ok := t.Elem(1).(value.String)
		if !ok {
			return time.Time{}, errors.TypeMismatch(name, "timezone must be string, got %s", t.Elem(1).Kind())
		}
		ns = i
		zone = string(z)
	default:
		return time.Time{}, errors.TypeMismatch(name, "operand must be number or [ns, tz] array, got %s", arg.Kind())
	}

	loc := time.UTC
	switch zone {
	case "", "UTC":
	case "Local":
		loc = time.Local
	default:
		var err error
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, errors.Parse(name, "unknown timezone %q", zone)
		}
	}
	return time.Unix(0, ns).In(loc), nil
}

func builtinTimeDate(_ *Context, args []value.Value) (value.Value, error) {
	t, err := timestampOperand("time.date", args[0])
	if err != nil {
		return nil, err
	}
	year, month, day := t.Date()
	return value.NewArray(
		value.Int64(int64(year)),
		value.Int64(int64(month)),
		value.Int64(int64(day)),
	), nil
}

func builtinTimeClock(_ *Context, args []value.Value) (value.Value, error) {
	t, err := timestampOperand("time.clock", args[0])
	if err != nil {
		return nil, err
	}
	hour, minute, second := t.Clock()
	return value.NewArray(
		value.Int64(int64(hour)),
		value.Int64(int64(minute)),
		value.Int64(int64(second)),
	), nil
}

func builtinTimeWeekday(_ *Context, args []value.Value) (value.Value, error) {
	t, err := timestampOperand("time.weekday", args[0])
	if err != nil {
		return nil, err
	}
	return value.String(t.Weekday().String()), nil
}

func builtinTimeAddDate(_ *Context, args []value.Value) (value.Value, error) {
	ns, err := intOperand("time.add_date", args, 0)
	if err != nil {
		return nil, err
	}
	years, err := intOperand("time.add_date", args, 1)
	if err != nil {
		return nil, err
	}
	months, err := intOperand("time.add_date", args, 2)
	if err != nil {
		return nil, err
	}
	days, err := intOperand("time.add_date", args, 3)
	if err != nil {
		return nil, err
	}

	t := time.Unix(0, ns).UTC().AddDate(int(years), int(months), int(days))
	if err := checkTimeRange("time.add_date", t); err != nil {
		return nil, err
	}
	return value.Int64(t.UnixNano()), nil
}

func builtinTimeDiff(_ *Context, args []value.Value) (value.Value, error) {
	t1, err := timestampOperand("time.diff", args[0])
	if err != nil {
		return nil, err
	}
	t2, err := timestampOperand("time.diff", args[1])
	if err != nil {
		return nil, err
	}
	if t1.Before(t2) {
		t1, t2 = t2, t1
	}

	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	h1, min1, s1 := t1.Clock()
	h2, min2, s2 := t2.Clock()

	year := y1 - y2
	month := int(m1) - int(m2)
	day := d1 - d2
	hour := h1 - h2
	minute := min1 - min2
	sec := s1 - s2

	// Borrow down the civil components.
	if sec < 0 {
		sec += 60
		minute--
	}
	if minute < 0 {
		minute += 60
		hour--
	}
	if hour < 0 {
		hour += 24
		day--
	}
	if day < 0 {
		// Days in the month preceding t1.
		prev := time.Date(y1, m1, 0, 0, 0, 0, 0, time.UTC)
		day += prev.Day()
		month--
	}
	if month < 0 {
		month += 12
		year--
	}

	return value.NewArray(
		value.Int64(int64(year)),
		value.Int64(int64(month)),
		value.Int64(int64(day)),
		value.Int64(int64(hour)),
		value.Int64(int64(minute)),
		value.Int64(int64(sec)),
	), nil
}
