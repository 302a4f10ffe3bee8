package ease

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownEase is returned by Parse for ids outside the supported set.
var ErrUnknownEase = errors.New("unknown ease")

// Parse resolves an authored ease id such as "easeIn", "back.out(0.7)" or
// "expoScale(0.5,7,power1.out)" into a curve. An empty id is linear.
func Parse(id string) (Func, error) {
	name, args, err := split(id)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "", "linear", "none", "power0", "power0.none":
		return Linear, nil
	case "easein", "power1.in", "quad.in":
		return QuadIn, nil
	case "easeout", "power1.out", "quad.out", "power1":
		return QuadOut, nil
	case "easeinout", "power1.inout", "quad.inout":
		return QuadInOut, nil
	case "smooth", "smoothstep":
		return Smoothstep, nil
	case "cubic", "smootherstep":
		return Smootherstep, nil
	case "elastic.in", "elastic.out", "elastic.inout", "elastic":
		nums, err := floats(id, args, 2, []float64{1, 0.3})
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(name) {
		case "elastic.in":
			return ElasticIn(nums[0], nums[1]), nil
		case "elastic.inout":
			return ElasticInOut(nums[0], nums[1]), nil
		default:
			return ElasticOut(nums[0], nums[1]), nil
		}
	case "back.in", "back.out", "back.inout", "back":
		nums, err := floats(id, args, 1, []float64{1.70158})
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(name) {
		case "back.in":
			return BackIn(nums[0]), nil
		case "back.inout":
			return BackInOut(nums[0]), nil
		default:
			return BackOut(nums[0]), nil
		}
	case "exposcale":
		if len(args) < 2 || len(args) > 3 {
			return nil, fmt.Errorf("%w: %q wants (start,end[,ease])", ErrUnknownEase, id)
		}
		nums, err := floats(id, args[:2], 2, nil)
		if err != nil {
			return nil, err
		}
		inner := Func(Linear)
		if len(args) == 3 {
			if inner, err = Parse(args[2]); err != nil {
				return nil, err
			}
		}
		return ExpoScale(nums[0], nums[1], inner), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEase, id)
}

// MustParse is Parse for ids known at compile time.
func MustParse(id string) Func {
	f, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return f
}

// split separates "name(a,b,c)" into name and top-level args. A dangling
// closing paren without an opening one is dropped.
func split(id string) (string, []string, error) {
	id = strings.TrimSpace(id)
	open := strings.IndexByte(id, '(')
	if open < 0 {
		return strings.TrimRight(id, ") "), nil, nil
	}
	if !strings.HasSuffix(id, ")") {
		return "", nil, fmt.Errorf("%w: %q has unterminated arguments", ErrUnknownEase, id)
	}
	name := strings.TrimSpace(id[:open])
	body := id[open+1 : len(id)-1]

	var args []string
	depth, start := 0, 0
	for i, r := range body {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", nil, fmt.Errorf("%w: %q has unbalanced parens", ErrUnknownEase, id)
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, fmt.Errorf("%w: %q has unbalanced parens", ErrUnknownEase, id)
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" || len(args) > 0 {
		args = append(args, rest)
	}
	return name, args, nil
}

func floats(id string, args []string, max int, defaults []float64) ([]float64, error) {
	if len(args) > max {
		return nil, fmt.Errorf("%w: %q takes at most %d arguments", ErrUnknownEase, id, max)
	}
	out := make([]float64, max)
	copy(out, defaults)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q argument %d: %v", ErrUnknownEase, id, i, err)
		}
		out[i] = v
	}
	return out, nil
}
