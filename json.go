package symdiff

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// JSON Serialization
// ============================================================

// Codec converts expressions to and from JSON. Leaves carry their display
// form as a string, parsed back with ParseSymbol and ParseNumber.
type Codec[S comparable, U Number[U]] struct {
	ParseSymbol func(string) (S, error)
	ParseNumber func(string) (U, error)
}

// IntCodec handles Expr[Char, Int].
var IntCodec = Codec[Char, Int]{ParseSymbol: ParseChar, ParseNumber: ParseInt}

func ToJSON[S comparable, U Number[U]](e Expr[S, U]) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

func (c Codec[S, U]) Marshal(e Expr[S, U]) ([]byte, error) {
	return json.Marshal(e.toJSON())
}

func (c Codec[S, U]) Unmarshal(data []byte) (Expr[S, U], error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return c.FromJSON(m)
}

func (c Codec[S, U]) FromJSON(data map[string]interface{}) (Expr[S, U], error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	subExpr := func(field string) (Expr[S, U], error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := c.FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	pair := func(a, b string) (Expr[S, U], Expr[S, U], error) {
		l, err := subExpr(a)
		if err != nil {
			return nil, nil, err
		}
		r, err := subExpr(b)
		if err != nil {
			return nil, nil, err
		}
		return l, r, nil
	}

	switch typ {
	case "var":
		name, err := subString("symbol")
		if err != nil {
			return nil, err
		}
		s, err := c.ParseSymbol(name)
		if err != nil {
			return nil, fmt.Errorf("var: %w", err)
		}
		return Variable[S, U]{Symbol: s}, nil

	case "const":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		u, err := c.ParseNumber(val)
		if err != nil {
			return nil, fmt.Errorf("const: %w", err)
		}
		return Constant[S, U]{Value: u}, nil

	case "plus":
		l, r, err := pair("left", "right")
		if err != nil {
			return nil, err
		}
		return Add(l, r), nil

	case "times":
		l, r, err := pair("left", "right")
		if err != nil {
			return nil, err
		}
		return Mul(l, r), nil

	case "power":
		b, x, err := pair("base", "exponent")
		if err != nil {
			return nil, err
		}
		return Pow(b, x), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
