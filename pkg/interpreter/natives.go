package interpreter

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/runtime"
)

// Natives is the registry of host functions visible to Stone code. They live
// in the builtin layer beneath the globals, so a global of the same name
// shadows a native.
type Natives struct {
	env *runtime.BasicEnv
}

// Register installs fn under name. Arity < 0 accepts any argument count.
func (n *Natives) Register(name string, arity int, fn runtime.NativeFunc) {
	n.env.Define(name, &runtime.NativeFunctionValue{Name: name, Arity: arity, Impl: fn})
}

// Lookup returns the native registered under name.
func (n *Natives) Lookup(name string) (*runtime.NativeFunctionValue, bool) {
	val, ok := n.env.Get(name)
	if !ok {
		return nil, false
	}
	fn, ok := val.(*runtime.NativeFunctionValue)
	return fn, ok
}

// Names lists the registered natives in sorted order.
func (n *Natives) Names() []string { return n.env.Keys() }

type nativeSpec struct {
	arity int
	impl  func(i *Interpreter) runtime.NativeFunc
}

var standardNatives = map[string]nativeSpec{
	"print":      {1, (*Interpreter).nativePrint},
	"read":       {0, (*Interpreter).nativeRead},
	"length":     {1, func(*Interpreter) runtime.NativeFunc { return nativeLength }},
	"to_int":     {1, func(*Interpreter) runtime.NativeFunc { return nativeToInt }},
	"time_start": {0, (*Interpreter).nativeTimeStart},
	"time_end":   {0, (*Interpreter).nativeTimeEnd},
}

// StandardNatives lists the names of the built-in natives.
func StandardNatives() []string {
	names := make([]string, 0, len(standardNatives))
	for name := range standardNatives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i *Interpreter) installStandardNatives(only []string) {
	names := only
	if len(names) == 0 {
		names = StandardNatives()
	}
	for _, name := range names {
		def, ok := standardNatives[name]
		if !ok {
			i.debug("skipping unknown native", "name", name)
			continue
		}
		i.natives.Register(name, def.arity, def.impl(i))
	}
}

func (i *Interpreter) nativePrint() runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if _, err := fmt.Fprintln(i.out, stringify(args[0])); err != nil {
			return nil, fmt.Errorf("print: %w", err)
		}
		return runtime.Null, nil
	}
}

func (i *Interpreter) nativeRead() runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		line, err := i.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read: %w", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			return runtime.Null, nil
		}
		return runtime.Str(strings.TrimRight(line, "\r\n")), nil
	}
}

func nativeLength(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		return runtime.Int(int64(len(v.Val))), nil
	case *runtime.ArrayValue:
		return runtime.Int(int64(len(v.Elements))), nil
	default:
		return nil, diag.At(diag.KindType, ctx.Line, "length of %s", args[0].Kind())
	}
}

func nativeToInt(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.IntegerValue:
		return v, nil
	case runtime.StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Val), 10, 64)
		if err != nil {
			return nil, diag.At(diag.KindType, ctx.Line, "to_int: %q is not an integer", v.Val)
		}
		return runtime.Int(n), nil
	default:
		return nil, diag.At(diag.KindType, ctx.Line, "to_int of %s", args[0].Kind())
	}
}

func (i *Interpreter) nativeTimeStart() runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		i.started = time.Now()
		return runtime.Null, nil
	}
}

func (i *Interpreter) nativeTimeEnd() runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		cost := time.Since(i.started).Seconds()
		if _, err := fmt.Fprintf(i.out, "cost time = %ss\n", strconv.FormatFloat(cost, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("time_end: %w", err)
		}
		return runtime.Null, nil
	}
}
