package interpreter

import (
	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/resolver"
	"stone/interpreter-go/pkg/runtime"
)

// evaluatePostfix evaluates expr without its nest outermost postfixes.
func (i *Interpreter) evaluatePostfix(expr *ast.PrimaryExpr, env runtime.Environment, nest int) (runtime.Value, error) {
	if !expr.HasPostfix(nest) {
		return i.Eval(expr.Operand(), env)
	}
	target, err := i.evaluatePostfix(expr, env, nest+1)
	if err != nil {
		return nil, err
	}
	switch op := expr.Postfix(nest).(type) {
	case *ast.Arguments:
		return i.call(target, op, env)
	case *ast.Dot:
		return i.member(target, op)
	case *ast.ArrayRef:
		arr, idx, err := i.evaluateIndex(op, target, env)
		if err != nil {
			return nil, err
		}
		return arr.Elements[idx], nil
	default:
		return nil, diag.At(diag.KindType, op.Line(), "unsupported postfix %s", op)
	}
}

func (i *Interpreter) arguments(args *ast.Arguments, env runtime.Environment) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, args.Size())
	for _, arg := range args.Children() {
		val, err := i.Eval(arg, env)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}

func arityError(name string, want, got, line int) error {
	return diag.At(diag.KindArity, line, "%s expects %d arguments, got %d", name, want, got)
}

func (i *Interpreter) call(target runtime.Value, args *ast.Arguments, env runtime.Environment) (runtime.Value, error) {
	switch fn := target.(type) {
	case *runtime.NativeFunctionValue:
		if fn.Arity >= 0 && fn.Arity != args.Size() {
			return nil, arityError(fn.Name, fn.Arity, args.Size(), args.Line())
		}
		values, err := i.arguments(args, env)
		if err != nil {
			return nil, err
		}
		result, err := fn.Impl(&runtime.NativeCallContext{Env: env, Line: args.Line()}, values)
		if err != nil {
			return nil, diag.WithLine(err, args.Line())
		}
		if result == nil {
			return runtime.Null, nil
		}
		return result, nil
	case *runtime.FunctionValue:
		if fn.Arity() != args.Size() {
			return nil, arityError(functionName(fn), fn.Arity(), args.Size(), args.Line())
		}
		values, err := i.arguments(args, env)
		if err != nil {
			return nil, err
		}
		return i.invokeFunction(fn, values)
	case *runtime.MethodValue:
		if fn.Arity() != args.Size() {
			return nil, arityError(fn.Receiver.Class.Name+"."+fn.Def.Name(), fn.Arity(), args.Size(), args.Line())
		}
		values, err := i.arguments(args, env)
		if err != nil {
			return nil, err
		}
		return i.invokeMethod(fn, values)
	default:
		return nil, diag.At(diag.KindType, args.Line(), "%s is not callable", target.Kind())
	}
}

func functionName(fn *runtime.FunctionValue) string {
	if fn.Name == "" {
		return "closure"
	}
	return fn.Name
}

func (i *Interpreter) invokeFunction(fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	if fn.Size < 0 {
		callEnv := runtime.NewNestedEnv(fn.Env)
		for idx, name := range fn.Params {
			callEnv.Define(name, args[idx])
		}
		return i.Eval(fn.Body, callEnv)
	}
	callEnv := runtime.NewArrayEnv(fn.Size, fn.Env)
	for idx, arg := range args {
		if err := callEnv.PutAt(0, idx, arg); err != nil {
			return nil, err
		}
	}
	return i.Eval(fn.Body, callEnv)
}

func (i *Interpreter) invokeMethod(m *runtime.MethodValue, args []runtime.Value) (runtime.Value, error) {
	callEnv := runtime.NewArrayEnv(m.Def.Size, m.Receiver.Class.Env)
	if err := callEnv.PutAt(0, 0, m.Receiver); err != nil {
		return nil, err
	}
	for idx, arg := range args {
		if err := callEnv.PutAt(0, idx+1, arg); err != nil {
			return nil, err
		}
	}
	return i.Eval(m.Def.Body(), callEnv)
}

// lookupMember locates name in obj's class, refreshing the site's inline
// cache when the receiver class differs from the cached one.
func lookupMember(obj *runtime.ObjectValue, dot *ast.Dot) (ast.MemberCache, error) {
	if dot.Cache.ClassID == obj.Class.ID {
		return dot.Cache, nil
	}
	layout := obj.Class.Layout
	if idx, ok := layout.Fields.Find(dot.Name()); ok {
		dot.Cache = ast.MemberCache{ClassID: obj.Class.ID, Field: true, Index: idx}
		return dot.Cache, nil
	}
	if _, idx, ok := layout.Method(dot.Name()); ok {
		dot.Cache = ast.MemberCache{ClassID: obj.Class.ID, Index: idx}
		return dot.Cache, nil
	}
	return ast.MemberCache{}, diag.At(diag.KindMember, dot.Line(), "%s has no member %s", obj.Class.Name, dot.Name())
}

func (i *Interpreter) member(target runtime.Value, dot *ast.Dot) (runtime.Value, error) {
	switch v := target.(type) {
	case *runtime.ClassValue:
		if dot.Name() == "new" {
			return i.instantiate(v)
		}
		return nil, diag.At(diag.KindMember, dot.Line(), "class %s has no member %s", v.Name, dot.Name())
	case *runtime.ObjectValue:
		entry, err := lookupMember(v, dot)
		if err != nil {
			return nil, err
		}
		if entry.Field {
			return v.Fields[entry.Index], nil
		}
		return &runtime.MethodValue{Receiver: v, Def: v.Class.Layout.Defs[entry.Index]}, nil
	default:
		return nil, diag.At(diag.KindType, dot.Line(), "cannot access .%s on %s", dot.Name(), target.Kind())
	}
}

func (i *Interpreter) setMember(target runtime.Value, dot *ast.Dot, val runtime.Value) error {
	obj, ok := target.(*runtime.ObjectValue)
	if !ok {
		return diag.At(diag.KindType, dot.Line(), "cannot assign .%s on %s", dot.Name(), target.Kind())
	}
	entry, err := lookupMember(obj, dot)
	if err != nil {
		return err
	}
	if !entry.Field {
		return diag.At(diag.KindAssignmentTarget, dot.Line(), "cannot assign to method %s.%s", obj.Class.Name, dot.Name())
	}
	obj.Fields[entry.Index] = val
	return nil
}

func (i *Interpreter) evaluateClass(stmt *ast.ClassStatement, env runtime.Environment) (runtime.Value, error) {
	var super *runtime.ClassValue
	var superLayout *resolver.ClassLayout
	if name := stmt.SuperClass(); name != "" {
		val, ok := env.Get(name)
		if !ok {
			return nil, diag.At(diag.KindUndefinedName, stmt.Line(), "undefined superclass %s", name)
		}
		if super, ok = val.(*runtime.ClassValue); !ok {
			return nil, diag.At(diag.KindType, stmt.Line(), "superclass %s is a %s, not a class", name, val.Kind())
		}
		superLayout = super.Layout
	}
	layout, err := i.resolver.ResolveClass(stmt, superLayout, i.globals.Symbols())
	if err != nil {
		return nil, err
	}
	class := runtime.NewClass(stmt.Name(), super, layout, stmt, env)
	if err := i.bind(env, stmt.Index, stmt.Name(), class, stmt.Line()); err != nil {
		return nil, err
	}
	i.debug("defined class", "class", class.Name, "id", class.ID, "fields", layout.FieldCount())
	return runtime.Str(stmt.Name()), nil
}

// instantiate runs the field initializers of every class from the root down,
// each in a scope holding only the new object at slot 0.
func (i *Interpreter) instantiate(class *runtime.ClassValue) (runtime.Value, error) {
	obj := runtime.NewObject(class)
	for _, c := range class.Lineage() {
		initEnv := runtime.NewArrayEnv(1, c.Env)
		if err := initEnv.PutAt(0, 0, obj); err != nil {
			return nil, err
		}
		for _, member := range c.Body.Body().Children() {
			if _, isDef := member.(*ast.DefStatement); isDef {
				continue
			}
			if _, err := i.Eval(member, initEnv); err != nil {
				return nil, err
			}
		}
	}
	return obj, nil
}
