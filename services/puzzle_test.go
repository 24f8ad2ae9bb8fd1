package services

import (
	"crypto/rand"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

const powTestPrefix = "6f1c0ab2d93e4c7f8a5b1e0d2c3f4a59"

func TestCheckProofOfWorkKnownVectors(t *testing.T) {
	// Each solution's digest has exactly zeros leading hex zeros for powTestPrefix.
	vectors := []struct {
		solution string
		zeros    int
	}{
		{"0", 0},
		{"12", 1},
		{"305", 2},
		{"11679", 3},
		{"40950", 4},
		{"233740", 5},
	}

	for _, v := range vectors {
		if got := leadingHexZeros(proofOfWorkDigest(powTestPrefix, v.solution)); got != v.zeros {
			t.Fatalf("digest of %q has %d zeros, want %d", v.solution, got, v.zeros)
		}

		for d := 0; d <= v.zeros; d++ {
			if !CheckProofOfWork(powTestPrefix, v.solution, d) {
				t.Errorf("solution %q rejected at difficulty %d", v.solution, d)
			}
		}
		// near miss: exactly d-1 zeros must fail at d
		if CheckProofOfWork(powTestPrefix, v.solution, v.zeros+1) {
			t.Errorf("solution %q accepted at difficulty %d", v.solution, v.zeros+1)
		}
	}
}

func TestCheckProofOfWorkRejectsMalformed(t *testing.T) {
	if CheckProofOfWork(powTestPrefix, "", 0) {
		t.Error("empty solution accepted")
	}
	if CheckProofOfWork(powTestPrefix, strings.Repeat("9", MaxSolutionLength+1), 0) {
		t.Error("oversized solution accepted")
	}
	if CheckProofOfWork(powTestPrefix, "305", -1) {
		t.Error("negative difficulty accepted")
	}
}

func TestSolveProofOfWork(t *testing.T) {
	solution, ok := SolveProofOfWork(powTestPrefix, 2, 10000)
	if !ok {
		t.Fatal("no solution found")
	}
	// "305" qualifies, so the counter search cannot pass it
	if n, _ := strconv.Atoi(solution); n > 305 {
		t.Fatalf("first solution should be at most 305, got %s", solution)
	}
	if !CheckProofOfWork(powTestPrefix, solution, 2) {
		t.Fatalf("solver returned invalid solution %s", solution)
	}
}

func TestArithmeticProblem(t *testing.T) {
	pattern := regexp.MustCompile(`^What is (\d+) ([+\-×]) (\d+)\?$`)

	for i := 0; i < 500; i++ {
		question, answer, err := newArithmeticProblem(rand.Reader)
		if err != nil {
			t.Fatalf("newArithmeticProblem: %v", err)
		}

		m := pattern.FindStringSubmatch(question)
		if m == nil {
			t.Fatalf("unexpected question format %q", question)
		}
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[3])
		if a < arithmeticMinOperand || a > arithmeticMaxOperand || b < arithmeticMinOperand || b > arithmeticMaxOperand {
			t.Fatalf("operand out of range in %q", question)
		}

		var want int
		switch m[2] {
		case "+":
			want = a + b
		case "-":
			want = a - b
		case "×":
			want = a * b
		}
		if want < 0 {
			t.Fatalf("negative answer for %q", question)
		}
		if answer != strconv.Itoa(want) {
			t.Fatalf("answer for %q = %s, want %d", question, answer, want)
		}
	}
}

func TestCheckArithmetic(t *testing.T) {
	if !checkArithmetic("42", " 42 ") {
		t.Error("whitespace around the answer should be ignored")
	}
	if checkArithmetic("42", "41") {
		t.Error("wrong answer accepted")
	}
	if checkArithmetic("42", "") {
		t.Error("empty answer accepted")
	}
}

func TestRandomHex(t *testing.T) {
	a, err := randomHex(rand.Reader, 32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := randomHex(rand.Reader, 32)
	if len(a) != 64 || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}

	tok, err := randomToken(rand.Reader, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(tok) != 43 {
		t.Fatalf("token length = %d", len(tok))
	}
}
