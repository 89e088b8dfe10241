package builder

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// BlobLiteral renders a byte slice as an engine-specific literal.
type BlobLiteral func([]byte) string

// DuckDBBlob renders b as '\xAA\xBB'::BLOB.
func DuckDBBlob(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, c := range b {
		fmt.Fprintf(&sb, "\\x%02X", c)
	}
	sb.WriteString("'::BLOB")
	return sb.String()
}

// PostgresBlob renders b as '\xaabb'::bytea.
func PostgresBlob(b []byte) string {
	return fmt.Sprintf("'\\x%x'::bytea", b)
}

// ErrArgumentCount is returned by Inline when markers and arguments differ.
var ErrArgumentCount = errors.New("argument count does not match placeholders")

// Inline renders the command as a self-contained statement, with every
// bind marker ("?" or "$n") replaced by the literal of its argument.
// Markers inside quoted strings and quoted identifiers are left alone.
func (c Command) Inline(blob BlobLiteral) (string, error) {
	if len(c.Args) == 0 {
		return c.SQL, nil
	}
	if blob == nil {
		blob = DuckDBBlob
	}

	var sb strings.Builder
	next := 0
	used := make([]bool, len(c.Args))
	var quote byte

	for i := 0; i < len(c.SQL); i++ {
		ch := c.SQL[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			sb.WriteByte(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			sb.WriteByte(ch)
		case ch == '?':
			if next >= len(c.Args) {
				return "", ErrArgumentCount
			}
			lit, err := sqlLiteral(c.Args[next], blob)
			if err != nil {
				return "", err
			}
			used[next] = true
			next++
			sb.WriteString(lit)
		case ch == '$' && i+1 < len(c.SQL) && isDigit(c.SQL[i+1]):
			j := i + 1
			for j < len(c.SQL) && isDigit(c.SQL[j]) {
				j++
			}
			n, _ := strconv.Atoi(c.SQL[i+1 : j])
			if n < 1 || n > len(c.Args) {
				return "", fmt.Errorf("%w: $%d", ErrArgumentCount, n)
			}
			lit, err := sqlLiteral(c.Args[n-1], blob)
			if err != nil {
				return "", err
			}
			used[n-1] = true
			sb.WriteString(lit)
			i = j - 1
		default:
			sb.WriteByte(ch)
		}
	}

	for _, u := range used {
		if !u {
			return "", ErrArgumentCount
		}
	}
	return sb.String(), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func sqlLiteral(v any, blob BlobLiteral) (string, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		value, err := valuer.Value()
		if err != nil {
			return "", err
		}
		v = value
	}

	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case []byte:
		if x == nil {
			return "NULL", nil
		}
		return blob(x), nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return floatLiteral(float64(x))
	case float64:
		return floatLiteral(x)
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05.999999999-07:00") + "'", nil
	}

	// Named types fall back to their underlying kind.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return sqlLiteral(rv.String(), blob)
	case reflect.Bool:
		return sqlLiteral(rv.Bool(), blob)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return floatLiteral(rv.Float())
	}
	return "", fmt.Errorf("no literal form for %T", v)
}

func floatLiteral(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("no literal form for %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}
