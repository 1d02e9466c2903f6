package interpreter

import (
	"strconv"
	"strings"

	"stone/interpreter-go/pkg/runtime"
)

// Stringify renders a value the way print and string concatenation show it.
func Stringify(val runtime.Value) string { return stringify(val) }

func stringify(val runtime.Value) string {
	return render(val, make(map[*runtime.ArrayValue]bool))
}

// render prints an array that is already being rendered further up as [...].
func render(val runtime.Value, open map[*runtime.ArrayValue]bool) string {
	switch v := val.(type) {
	case nil, runtime.NullValue:
		return "null"
	case runtime.IntegerValue:
		return strconv.FormatInt(v.Val, 10)
	case runtime.StringValue:
		return v.Val
	case *runtime.ArrayValue:
		if open[v] {
			return "[...]"
		}
		open[v] = true
		defer delete(open, v)
		parts := make([]string, len(v.Elements))
		for idx, el := range v.Elements {
			parts[idx] = render(el, open)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *runtime.FunctionValue:
		return "<fun:" + functionName(v) + ">"
	case *runtime.NativeFunctionValue:
		return "<native:" + v.Name + ">"
	case *runtime.ClassValue:
		return "<class:" + v.Name + ">"
	case *runtime.ObjectValue:
		return "<object:" + v.Class.Name + ">"
	case *runtime.MethodValue:
		return "<method:" + v.Receiver.Class.Name + "." + v.Def.Name() + ">"
	default:
		return "<" + val.Kind().String() + ">"
	}
}
