package callcache

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// encodeValue renders a storable value as the bytes written to the store.
// Integers use base 10 and floats the shortest decimal that parses back to
// the same value, matching what a Redis client sends for numeric arguments.
func encodeValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case int:
		return strconv.AppendInt(nil, int64(x), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(x), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(x), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(x), 10), nil
	case int64:
		return strconv.AppendInt(nil, x, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint64:
		return strconv.AppendUint(nil, x, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, x, 'f', -1, 64), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Decoder converts the raw bytes of a stored value.
type Decoder[T any] func(raw []byte) (T, error)

// DecodeText decodes raw as UTF-8 text.
func DecodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: value is not valid UTF-8", ErrDecode)
	}
	return string(raw), nil
}

// DecodeInt parses raw as a base-10 integer. Surrounding whitespace is
// ignored.
func DecodeInt(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrDecode, raw)
	}
	return n, nil
}

// DecodeUint parses raw as a base-10 unsigned integer, covering values
// stored from uint64 that do not fit in an int64. Surrounding whitespace is
// ignored.
func DecodeUint(raw []byte) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned integer", ErrDecode, raw)
	}
	return n, nil
}

// DecodeFloat parses raw as a floating-point number.
func DecodeFloat(raw []byte) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrDecode, raw)
	}
	return f, nil
}

// FormatArgs renders a positional argument list for the input history,
// e.g. ("foo", 42).
func FormatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatArg(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case []byte:
		return "[]byte(" + strconv.Quote(string(x)) + ")"
	default:
		return fmt.Sprint(x)
	}
}

// FormatResult renders a call result for the output history.
func FormatResult(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// display renders a history element as text, quoting it when it is not
// valid UTF-8.
func display(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strconv.Quote(string(raw))
}
