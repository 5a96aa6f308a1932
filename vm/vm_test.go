package vm

import (
	"bytes"
	"strings"
	"testing"
)

// run interprets src on a fresh VM and returns stdout, stderr and the result.
func run(t *testing.T, src string) (string, string, Result) {
	t.Helper()
	machine := New()
	var out, errOut bytes.Buffer
	machine.Stdout = &out
	machine.Stderr = &errOut

	res := machine.Interpret(src)
	if machine.StackDepth() != 0 {
		t.Errorf("stack depth = %d after interpret, want 0", machine.StackDepth())
	}
	machine.Free()
	return out.String(), errOut.String(), res
}

func expectOutput(t *testing.T, src, want string) {
	t.Helper()
	out, errOut, res := run(t, src)
	if res != ResultOk {
		t.Fatalf("Interpret(%q) = %v, stderr: %s", src, res, errOut)
	}
	if out != want {
		t.Errorf("Interpret(%q) printed %q, want %q", src, out, want)
	}
}

func expectRuntimeError(t *testing.T, src, wantMsg string) {
	t.Helper()
	_, errOut, res := run(t, src)
	if res != ResultRuntimeError {
		t.Fatalf("Interpret(%q) = %v, want runtime error", src, res)
	}
	if !strings.Contains(errOut, wantMsg) {
		t.Errorf("stderr = %q, want it to contain %q", errOut, wantMsg)
	}
	if !strings.Contains(errOut, "] in script") {
		t.Errorf("stderr = %q, missing source line report", errOut)
	}
}

// ---------------------------------------------------------------------------
// End-to-end scenarios
// ---------------------------------------------------------------------------

func TestArithmeticPrecedence(t *testing.T) {
	expectOutput(t, "print 1 + 2 * 3;", "7\n")
}

func TestStringConcatenation(t *testing.T) {
	expectOutput(t, `let a = "foo"; let b = "bar"; print a + b;`, "foobar\n")
}

func TestWhileLoop(t *testing.T) {
	expectOutput(t, "let mut i = 0; while (i < 3) { print i; i = i + 1; }", "0\n1\n2\n")
}

func TestIfElse(t *testing.T) {
	expectOutput(t, `if (1 == 1) print "yes"; else print "no";`, "yes\n")
	expectOutput(t, `if (1 == 2) print "yes"; else print "no";`, "no\n")
	expectOutput(t, `if (true) print "then";`, "then\n")
	expectOutput(t, `if (false) print "then";`, "")
}

func TestNegateTypeError(t *testing.T) {
	expectRuntimeError(t, "print -true;", "Operand must be a number.")
}

func TestGlobalSelfReferenceIsUndefined(t *testing.T) {
	// At global scope the initializer reads the not-yet-defined name.
	expectRuntimeError(t, "let x = x;", "Undefined variable 'x'.")
}

// ---------------------------------------------------------------------------
// Values and operators
// ---------------------------------------------------------------------------

func TestLiterals(t *testing.T) {
	expectOutput(t, "print null;", "null\n")
	expectOutput(t, "print true;", "true\n")
	expectOutput(t, "print false;", "false\n")
	expectOutput(t, "print 42;", "42\n")
	expectOutput(t, `print "hi";`, "hi\n")
}

func TestIntegerBases(t *testing.T) {
	expectOutput(t, "print 0b1010;", "10\n")
	expectOutput(t, "print 0o777;", "511\n")
	expectOutput(t, "print 0xFF;", "255\n")
}

func TestArithmetic(t *testing.T) {
	expectOutput(t, "print 10 - 4;", "6\n")
	expectOutput(t, "print 6 * 7;", "42\n")
	expectOutput(t, "print 7 / 2;", "3.5\n")
	expectOutput(t, "print -(3 + 4);", "-7\n")
}

func TestDivisionByZeroYieldsInfinity(t *testing.T) {
	expectOutput(t, "print 1 / 0;", "+Inf\n")
	expectOutput(t, "print -1 / 0;", "-Inf\n")
}

func TestComparisons(t *testing.T) {
	expectOutput(t, "print 1 < 2;", "true\n")
	expectOutput(t, "print 2 <= 2;", "true\n")
	expectOutput(t, "print 1 > 2;", "false\n")
	expectOutput(t, "print 2 >= 3;", "false\n")
}

func TestEquality(t *testing.T) {
	expectOutput(t, "print 1 == 1;", "true\n")
	expectOutput(t, "print 1 != 2;", "true\n")
	expectOutput(t, `print "x" == "x";`, "true\n")
	expectOutput(t, `print "x" == "y";`, "false\n")
	expectOutput(t, "print null == null;", "true\n")
	// Cross-type comparisons are false, not errors.
	expectOutput(t, `print 1 == "1";`, "false\n")
	expectOutput(t, "print null == false;", "false\n")
	expectOutput(t, "print 0 == false;", "false\n")
}

func TestInterningMakesConcatenationsEqual(t *testing.T) {
	expectOutput(t, `print "ab" + "c" == "a" + "bc";`, "true\n")
}

func TestNotAndFalsiness(t *testing.T) {
	expectOutput(t, "print !null;", "true\n")
	expectOutput(t, "print !false;", "true\n")
	expectOutput(t, "print !true;", "false\n")
	expectOutput(t, "print !0;", "false\n")
	expectOutput(t, `print !"";`, "false\n")
}

func TestTruthinessInConditions(t *testing.T) {
	expectOutput(t, `if (0) print "t"; else print "f";`, "t\n")
	expectOutput(t, `if ("") print "t"; else print "f";`, "t\n")
	expectOutput(t, `if (null) print "t"; else print "f";`, "f\n")
	expectOutput(t, `if (false) print "t"; else print "f";`, "f\n")
}

func TestLogicalOperators(t *testing.T) {
	// and/or yield the deciding operand, not a canonical bool.
	expectOutput(t, "print true and 2;", "2\n")
	expectOutput(t, "print false and 2;", "false\n")
	expectOutput(t, "print null and 2;", "null\n")
	expectOutput(t, "print false or 3;", "3\n")
	expectOutput(t, "print true or 3;", "true\n")
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	// The right operand would blow up at runtime if evaluated.
	expectOutput(t, "false and -true;", "")
	expectOutput(t, "true or -true;", "")
}

// ---------------------------------------------------------------------------
// Variables and scopes
// ---------------------------------------------------------------------------

func TestGlobalDefinition(t *testing.T) {
	expectOutput(t, "let a = 1; print a;", "1\n")
	expectOutput(t, "let a; print a;", "null\n")
}

func TestGlobalAssignment(t *testing.T) {
	expectOutput(t, "let mut a = 1; a = 2; print a;", "2\n")
	expectOutput(t, "let mut a = 1; print a = 5;", "5\n") // assignment is an expression
}

func TestUndefinedVariableGet(t *testing.T) {
	expectRuntimeError(t, "print missing;", "Undefined variable 'missing'.")
}

func TestUndefinedVariableSet(t *testing.T) {
	expectRuntimeError(t, "missing = 1;", "Undefined variable 'missing'.")
}

func TestLocalVariables(t *testing.T) {
	expectOutput(t, "{ let a = 10; print a; }", "10\n")
	expectOutput(t, "{ let mut a = 1; a = a + 1; print a; }", "2\n")
}

func TestLocalShadowing(t *testing.T) {
	src := `
	let a = "global";
	{
		let a = "local";
		print a;
	}
	print a;`
	expectOutput(t, src, "local\nglobal\n")
}

func TestNestedScopes(t *testing.T) {
	src := `
	{
		let a = 1;
		{
			let b = 2;
			print a + b;
		}
		print a;
	}`
	expectOutput(t, src, "3\n1\n")
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	machine := New()
	var out bytes.Buffer
	machine.Stdout = &out
	machine.Stderr = &out

	if res := machine.Interpret("let a = 40;"); res != ResultOk {
		t.Fatalf("first interpret = %v", res)
	}
	if res := machine.Interpret("print a + 2;"); res != ResultOk {
		t.Fatalf("second interpret = %v", res)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
	machine.Free()
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestCompileErrorResult(t *testing.T) {
	_, errOut, res := run(t, "print 1")
	if res != ResultCompileError {
		t.Fatalf("result = %v, want compile error", res)
	}
	if !strings.Contains(errOut, "Error") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestComparisonTypeError(t *testing.T) {
	expectRuntimeError(t, "print 1 < true;", "Operands must be numbers.")
	expectRuntimeError(t, `print "a" < "b";`, "Operands must be numbers.")
}

func TestAddTypeError(t *testing.T) {
	expectRuntimeError(t, `print 1 + "a";`, "Operands must be two numbers or two strings.")
	expectRuntimeError(t, "print true + false;", "Operands must be two numbers or two strings.")
}

func TestArithmeticTypeError(t *testing.T) {
	expectRuntimeError(t, "print 1 - null;", "Operands must be numbers.")
	expectRuntimeError(t, `print "a" * 2;`, "Operands must be numbers.")
}

func TestRuntimeErrorReportsLine(t *testing.T) {
	_, errOut, res := run(t, "let a = 1;\nprint -true;")
	if res != ResultRuntimeError {
		t.Fatalf("result = %v", res)
	}
	if !strings.Contains(errOut, "[line 2] in script") {
		t.Errorf("stderr = %q, want line 2 report", errOut)
	}
}

func TestRuntimeErrorAbortsExecution(t *testing.T) {
	out, _, res := run(t, `print "before"; print -true; print "after";`)
	if res != ResultRuntimeError {
		t.Fatalf("result = %v", res)
	}
	if out != "before\n" {
		t.Errorf("output = %q, the statement after the error must not run", out)
	}
}

func TestVMUsableAfterRuntimeError(t *testing.T) {
	machine := New()
	var out, errOut bytes.Buffer
	machine.Stdout = &out
	machine.Stderr = &errOut

	if res := machine.Interpret("print -true;"); res != ResultRuntimeError {
		t.Fatalf("first interpret = %v", res)
	}
	if res := machine.Interpret("print 1;"); res != ResultOk {
		t.Fatalf("second interpret = %v", res)
	}
	if out.String() != "1\n" {
		t.Errorf("output = %q", out.String())
	}
	machine.Free()
}

// ---------------------------------------------------------------------------
// Programs
// ---------------------------------------------------------------------------

func TestFibonacciLoop(t *testing.T) {
	src := `
	let mut a = 0;
	let mut b = 1;
	let mut i = 0;
	while (i < 10) {
		let t = a + b;
		a = b;
		b = t;
		i = i + 1;
	}
	print a;`
	expectOutput(t, src, "55\n")
}

func TestStringBuildingLoop(t *testing.T) {
	src := `
	let mut s = "";
	let mut i = 0;
	while (i < 3) {
		s = s + "ab";
		i = i + 1;
	}
	print s;`
	expectOutput(t, src, "ababab\n")
}

func TestNestedIfInWhile(t *testing.T) {
	src := `
	let mut i = 0;
	while (i < 4) {
		if (i == 2) print "two"; else print i;
		i = i + 1;
	}`
	expectOutput(t, src, "0\n1\ntwo\n3\n")
}

func TestDeepExpression(t *testing.T) {
	expectOutput(t, "print ((((1 + 2) * 3) - 4) / 5);", "1\n")
}
