package objrt

import (
	"fmt"
	"strings"
)

// Type codes of the encoding. Aggregates start with '{', '(' or '[';
// pointers with '^'; bitfields with 'b'.
const (
	TypeChar      = 'c'
	TypeUChar     = 'C'
	TypeShort     = 's'
	TypeUShort    = 'S'
	TypeInt       = 'i'
	TypeUInt      = 'I'
	TypeLong      = 'l'
	TypeULong     = 'L'
	TypeLongLong  = 'q'
	TypeULongLong = 'Q'
	TypeFloat     = 'f'
	TypeDouble    = 'd'
	TypeBool      = 'B'
	TypeVoid      = 'v'
	TypeCString   = '*'
	TypeObject    = '@'
	TypeClass     = '#'
	TypeSelector  = ':'
	TypeUnknown   = '?'
)

const simpleTypeCodes = "cCsSiIlLqQfdBv*@#:?"

// qualifiers such as const or inout precede a type and carry no layout.
const typeQualifiers = "rnNoORVA"

// ArgType describes one argument slot of an encoded signature.
type ArgType struct {
	Type   string
	Offset int
}

// Signature is a decoded method type encoding. Args includes the receiver
// and the selector in its first two slots.
type Signature struct {
	Return    string
	FrameSize int
	Args      []ArgType
}

// NumExplicitArgs returns the number of arguments after self and the
// selector.
func (s Signature) NumExplicitArgs() int {
	return len(s.Args) - 2
}

// Types builds an encoding for a method returning ret and taking the given
// explicit arguments, e.g. Types("v", "i", "i") gives "v@:ii".
func Types(ret string, args ...string) string {
	return ret + "@:" + strings.Join(args, "")
}

// ParseSignature decodes an encoding such as "v24@0:8i16i20" or "v@:ii".
// When offsets are omitted they are computed from the natural sizes of the
// argument types.
func ParseSignature(types string) (Signature, error) {
	p := &encodingParser{s: types}

	ret, err := p.nextType()
	if err != nil {
		return Signature{}, err
	}

	sig := Signature{Return: ret, FrameSize: p.number()}

	offset := 0
	for !p.done() {
		t, err := p.nextType()
		if err != nil {
			return Signature{}, err
		}

		off := p.number()
		if off < 0 {
			off = offset
		}
		offset = off + sizeOf(t)

		sig.Args = append(sig.Args, ArgType{Type: t, Offset: off})
	}

	if len(sig.Args) < 2 ||
		sig.Args[0].Type[0] != TypeObject ||
		sig.Args[1].Type != ":" {
		return Signature{}, fmt.Errorf(
			"encoding %q does not start with receiver and selector", types)
	}

	if sig.FrameSize < 0 {
		sig.FrameSize = offset
	}

	return sig, nil
}

type encodingParser struct {
	s   string
	pos int
}

func (p *encodingParser) done() bool {
	return p.pos >= len(p.s)
}

func (p *encodingParser) number() int {
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '-' {
		p.pos++
	}

	n := 0
	digits := 0
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		n = n*10 + int(p.s[p.pos]-'0')
		p.pos++
		digits++
	}

	if digits == 0 {
		p.pos = start
		return -1
	}

	if p.s[start] == '-' {
		return -n
	}

	return n
}

func (p *encodingParser) nextType() (string, error) {
	for !p.done() && strings.IndexByte(typeQualifiers, p.s[p.pos]) >= 0 {
		p.pos++
	}

	if p.done() {
		return "", fmt.Errorf("encoding %q ends before a type", p.s)
	}

	start := p.pos
	c := p.s[p.pos]

	switch {
	case c == '^':
		p.pos++
		if _, err := p.nextType(); err != nil {
			return "", err
		}
	case c == '{':
		if err := p.skipBalanced('{', '}'); err != nil {
			return "", err
		}
	case c == '(':
		if err := p.skipBalanced('(', ')'); err != nil {
			return "", err
		}
	case c == '[':
		if err := p.skipBalanced('[', ']'); err != nil {
			return "", err
		}
	case c == 'b':
		p.pos++
		if p.number() < 0 {
			return "", fmt.Errorf("bitfield without width in %q", p.s)
		}
	case c == TypeObject:
		p.pos++
		if !p.done() && p.s[p.pos] == '?' {
			p.pos++
		} else if !p.done() && p.s[p.pos] == '"' {
			if err := p.skipQuoted(); err != nil {
				return "", err
			}
		}
	case strings.IndexByte(simpleTypeCodes, c) >= 0:
		p.pos++
	default:
		return "", fmt.Errorf("unknown type code %q in %q", c, p.s)
	}

	return p.s[start:p.pos], nil
}

func (p *encodingParser) skipBalanced(open, closing byte) error {
	depth := 0
	for !p.done() {
		switch p.s[p.pos] {
		case '"':
			if err := p.skipQuoted(); err != nil {
				return err
			}
			continue
		case open:
			depth++
		case closing:
			depth--
		}
		p.pos++

		if depth == 0 {
			return nil
		}
	}

	return fmt.Errorf("unterminated %q in %q", open, p.s)
}

func (p *encodingParser) skipQuoted() error {
	end := strings.IndexByte(p.s[p.pos+1:], '"')
	if end < 0 {
		return fmt.Errorf("unterminated name in %q", p.s)
	}
	p.pos += end + 2

	return nil
}

func sizeOf(t string) int {
	switch t[0] {
	case TypeChar, TypeUChar, TypeBool:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeUInt, TypeFloat:
		return 4
	case TypeVoid:
		return 0
	default:
		return 8
	}
}
