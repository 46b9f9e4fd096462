// Package inspect turns the untyped arguments of an intercepted call into
// display strings, guided by the method's type encoding.
//
// Only a safe subset of type codes is decoded: integers, floating point
// numbers, booleans, C strings, objects, classes and selectors. Any other
// encoding, and any value whose dynamic type does not fit its code, renders
// as Placeholder.
package inspect

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/xtrace/objrt"
)

// MaxArgs is the number of arguments formatted per call. Further arguments
// are omitted silently.
const MaxArgs = 10

// Placeholder stands in for a value that cannot be decoded safely.
const Placeholder = "<?>"

// ArgDesc describes one explicit argument of a method.
type ArgDesc struct {
	Name   string
	Type   string
	Offset int
}

// Describe builds up to MaxArgs argument descriptors for a method. The error
// is non-nil when the method's type encoding cannot be decoded.
func Describe(m *objrt.Method) (objrt.Signature, []ArgDesc, error) {
	sig, err := objrt.ParseSignature(m.Types())
	if err != nil {
		return objrt.Signature{}, nil, err
	}

	n := sig.NumExplicitArgs()
	if n > MaxArgs {
		n = MaxArgs
	}

	descs := make([]ArgDesc, n)
	for i := range descs {
		a := sig.Args[i+2]
		descs[i] = ArgDesc{
			Name:   m.ArgName(i),
			Type:   a.Type,
			Offset: a.Offset,
		}
	}

	return sig, descs, nil
}

// FormatArgs formats the frame's arguments in order, at most MaxArgs of
// them. A descriptor without a matching frame slot renders as Placeholder.
func FormatArgs(descs []ArgDesc, frame []any, describe bool) []string {
	n := len(descs)
	if n > MaxArgs {
		n = MaxArgs
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i >= len(frame) {
			out[i] = Placeholder
			continue
		}

		out[i] = FormatValue(descs[i].Type, frame[i], describe)
	}

	return out
}

// FormatReturn formats a return value. The boolean is false for methods
// returning void.
func FormatReturn(typ string, v any, describe bool) (string, bool) {
	if typ == "" || typ[0] == objrt.TypeVoid {
		return "", false
	}

	return FormatValue(typ, v, describe), true
}

// FormatValue formats a single value according to its type code.
func FormatValue(typ string, v any, describe bool) string {
	if typ == "" {
		return Placeholder
	}

	switch typ[0] {
	case objrt.TypeChar, objrt.TypeUChar,
		objrt.TypeShort, objrt.TypeUShort,
		objrt.TypeInt, objrt.TypeUInt,
		objrt.TypeLong, objrt.TypeULong,
		objrt.TypeLongLong, objrt.TypeULongLong:
		return formatInteger(v)
	case objrt.TypeFloat, objrt.TypeDouble:
		return formatFloat(v)
	case objrt.TypeBool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b)
		}
	case objrt.TypeCString:
		switch s := v.(type) {
		case string:
			return strconv.Quote(s)
		case []byte:
			return strconv.Quote(string(s))
		}
	case objrt.TypeObject:
		return formatObject(v, describe)
	case objrt.TypeClass:
		if c, ok := v.(*objrt.Class); ok && c != nil {
			return c.Name()
		}
	case objrt.TypeSelector:
		switch s := v.(type) {
		case objrt.Selector:
			return string(s)
		case string:
			return s
		}
	}

	return Placeholder
}

func formatInteger(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10)
	case int8:
		return strconv.FormatInt(int64(n), 10)
	case int16:
		return strconv.FormatInt(int64(n), 10)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case uint8:
		return strconv.FormatUint(uint64(n), 10)
	case uint16:
		return strconv.FormatUint(uint64(n), 10)
	case uint32:
		return strconv.FormatUint(uint64(n), 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case uintptr:
		return strconv.FormatUint(uint64(n), 10)
	default:
		return Placeholder
	}
}

func formatFloat(v any) string {
	switch f := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return Placeholder
	}
}

func formatObject(v any, describe bool) string {
	switch o := v.(type) {
	case nil:
		return "nil"
	case *objrt.Object:
		if o == nil {
			return "nil"
		}

		if describe {
			return describeSafely(o)
		}

		return o.String()
	case *objrt.Class:
		if o == nil {
			return "nil"
		}

		return o.Name()
	case string:
		return strconv.Quote(o)
	}

	if describe {
		return describeSafely(v)
	}

	return fmt.Sprintf("<%T>", v)
}

// describeSafely runs user description code; a panic there degrades to the
// placeholder instead of reaching the traced call.
func describeSafely(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = Placeholder
		}
	}()

	return objrt.Describe(v)
}
