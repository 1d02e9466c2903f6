package interpreter

import (
	"stone/interpreter-go/pkg/ast"
	"stone/interpreter-go/pkg/diag"
	"stone/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateName(name *ast.Name, env runtime.Environment) (runtime.Value, error) {
	if name.Loc == nil {
		if val, ok := env.Get(name.Value()); ok {
			return val, nil
		}
		return nil, diag.At(diag.KindUndefinedName, name.Line(), "undefined name %s", name.Value())
	}
	loc := *name.Loc
	switch {
	case loc.IsField():
		obj, err := i.receiver(env, loc, name)
		if err != nil {
			return nil, err
		}
		return obj.Fields[loc.Index], nil
	case loc.IsMethod():
		obj, err := i.receiver(env, loc, name)
		if err != nil {
			return nil, err
		}
		return &runtime.MethodValue{Receiver: obj, Def: obj.Class.Layout.Defs[loc.Index]}, nil
	}
	if val, ok := env.GetAt(loc.Nest, loc.Index); ok {
		return val, nil
	}
	return nil, diag.At(diag.KindUndefinedName, name.Line(), "undefined name %s", name.Value())
}

// receiver fetches the object a member location refers to.
func (i *Interpreter) receiver(env runtime.Environment, loc ast.Location, node ast.Node) (*runtime.ObjectValue, error) {
	val, ok := env.GetAt(loc.This, 0)
	obj, isObj := val.(*runtime.ObjectValue)
	if !ok || !isObj {
		return nil, diag.At(diag.KindType, node.Line(), "member %s used without an object receiver", node)
	}
	limit := len(obj.Fields)
	if loc.IsMethod() {
		limit = len(obj.Class.Layout.Defs)
	}
	if loc.Index >= limit {
		return nil, diag.At(diag.KindMember, node.Line(), "%s has no member %s", obj.Class.Name, node)
	}
	return obj, nil
}

func (i *Interpreter) evaluateNegative(expr *ast.NegativeExpr, env runtime.Environment) (runtime.Value, error) {
	val, err := i.Eval(expr.Operand(), env)
	if err != nil {
		return nil, err
	}
	n, ok := val.(runtime.IntegerValue)
	if !ok {
		return nil, diag.At(diag.KindType, expr.Line(), "cannot negate %s", val.Kind())
	}
	return runtime.Int(-n.Val), nil
}

func (i *Interpreter) evaluateBinaryOp(expr *ast.BinaryOp, env runtime.Environment) (runtime.Value, error) {
	if expr.Operator() == "=" {
		return i.evaluateAssignment(expr, env)
	}
	left, err := i.Eval(expr.Left(), env)
	if err != nil {
		return nil, err
	}
	right, err := i.Eval(expr.Right(), env)
	if err != nil {
		return nil, err
	}
	return binaryOp(expr.Operator(), left, right, expr.Line())
}

func binaryOp(op string, left, right runtime.Value, line int) (runtime.Value, error) {
	if op == "==" {
		return boolValue(valuesEqual(left, right)), nil
	}
	l, lok := left.(runtime.IntegerValue)
	r, rok := right.(runtime.IntegerValue)
	if op == "+" && (!lok || !rok) {
		return runtime.Str(stringify(left) + stringify(right)), nil
	}
	if !lok || !rok {
		return nil, diag.At(diag.KindType, line, "bad operand types for %s: %s and %s", op, left.Kind(), right.Kind())
	}
	a, b := l.Val, r.Val
	switch op {
	case "+":
		return runtime.Int(a + b), nil
	case "-":
		return runtime.Int(a - b), nil
	case "*":
		return runtime.Int(a * b), nil
	case "/":
		if b == 0 {
			return nil, diag.At(diag.KindArithmetic, line, "division by zero")
		}
		return runtime.Int(a / b), nil
	case "%":
		if b == 0 {
			return nil, diag.At(diag.KindArithmetic, line, "modulo by zero")
		}
		return runtime.Int(a % b), nil
	case "<":
		return boolValue(a < b), nil
	case ">":
		return boolValue(a > b), nil
	default:
		return nil, diag.At(diag.KindType, line, "unsupported operator %s", op)
	}
}

func boolValue(b bool) runtime.Value {
	if b {
		return runtime.Int(1)
	}
	return runtime.Int(0)
}

// valuesEqual compares scalars by value and everything else by identity.
func valuesEqual(a, b runtime.Value) bool {
	switch x := a.(type) {
	case runtime.NullValue:
		_, ok := b.(runtime.NullValue)
		return ok
	case runtime.IntegerValue:
		y, ok := b.(runtime.IntegerValue)
		return ok && x.Val == y.Val
	case runtime.StringValue:
		y, ok := b.(runtime.StringValue)
		return ok && x.Val == y.Val
	case *runtime.MethodValue:
		y, ok := b.(*runtime.MethodValue)
		return ok && x.Receiver == y.Receiver && x.Def == y.Def
	default:
		return a == b
	}
}

func (i *Interpreter) evaluateAssignment(expr *ast.BinaryOp, env runtime.Environment) (runtime.Value, error) {
	// The target's shape is checked before anything runs.
	if !assignable(expr.Left()) {
		return nil, diag.At(diag.KindAssignmentTarget, expr.Line(), "cannot assign to %s", expr.Left())
	}
	val, err := i.Eval(expr.Right(), env)
	if err != nil {
		return nil, err
	}
	switch target := expr.Left().(type) {
	case *ast.Name:
		if err := i.assignName(target, val, env); err != nil {
			return nil, err
		}
		return val, nil
	case *ast.PrimaryExpr:
		owner, err := i.evaluatePostfix(target, env, 1)
		if err != nil {
			return nil, err
		}
		switch last := target.Postfix(0).(type) {
		case *ast.Dot:
			if err := i.setMember(owner, last, val); err != nil {
				return nil, err
			}
		case *ast.ArrayRef:
			if err := i.setElement(owner, last, val, env); err != nil {
				return nil, err
			}
		}
		return val, nil
	}
	return nil, diag.At(diag.KindAssignmentTarget, expr.Line(), "cannot assign to %s", expr.Left())
}

// assignable reports whether target is a name, a member or an element.
func assignable(target ast.Node) bool {
	switch t := target.(type) {
	case *ast.Name:
		return true
	case *ast.PrimaryExpr:
		switch t.Postfix(0).(type) {
		case *ast.Dot, *ast.ArrayRef:
			return true
		}
	}
	return false
}

func (i *Interpreter) assignName(name *ast.Name, val runtime.Value, env runtime.Environment) error {
	if name.Loc == nil {
		env.Put(name.Value(), val)
		return nil
	}
	loc := *name.Loc
	switch {
	case loc.IsField():
		obj, err := i.receiver(env, loc, name)
		if err != nil {
			return err
		}
		obj.Fields[loc.Index] = val
		return nil
	case loc.IsMethod():
		return diag.At(diag.KindAssignmentTarget, name.Line(), "cannot assign to method %s", name.Value())
	}
	if err := env.PutAt(loc.Nest, loc.Index, val); err != nil {
		return diag.At(diag.KindAssignmentTarget, name.Line(), "cannot assign to %s: %v", name.Value(), err)
	}
	return nil
}

func (i *Interpreter) evaluateIndex(ref *ast.ArrayRef, target runtime.Value, env runtime.Environment) (*runtime.ArrayValue, int, error) {
	arr, ok := target.(*runtime.ArrayValue)
	if !ok {
		return nil, 0, diag.At(diag.KindType, ref.Line(), "cannot index %s", target.Kind())
	}
	idxVal, err := i.Eval(ref.Index(), env)
	if err != nil {
		return nil, 0, err
	}
	idx, ok := idxVal.(runtime.IntegerValue)
	if !ok {
		return nil, 0, diag.At(diag.KindType, ref.Line(), "array index must be an integer, got %s", idxVal.Kind())
	}
	if idx.Val < 0 || idx.Val >= int64(len(arr.Elements)) {
		return nil, 0, diag.At(diag.KindType, ref.Line(), "index %d out of bounds for length %d", idx.Val, len(arr.Elements))
	}
	return arr, int(idx.Val), nil
}

func (i *Interpreter) setElement(target runtime.Value, ref *ast.ArrayRef, val runtime.Value, env runtime.Environment) error {
	arr, idx, err := i.evaluateIndex(ref, target, env)
	if err != nil {
		return err
	}
	arr.Elements[idx] = val
	return nil
}
