package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

const (
	arithmeticMinOperand = 1
	arithmeticMaxOperand = 20

	// MaxSolutionLength bounds what a client may submit as a challenge answer.
	MaxSolutionLength = 128
)

// randomHex returns n random bytes hex encoded.
func randomHex(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func randomToken(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func randomIntRange(r io.Reader, min, max int) (int, error) {
	n, err := rand.Int(r, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, err
	}
	return min + int(n.Int64()), nil
}

// newArithmeticProblem draws two operands and an operator. Subtraction
// operands are ordered so the answer is never negative.
func newArithmeticProblem(r io.Reader) (question, answer string, err error) {
	a, err := randomIntRange(r, arithmeticMinOperand, arithmeticMaxOperand)
	if err != nil {
		return "", "", err
	}
	b, err := randomIntRange(r, arithmeticMinOperand, arithmeticMaxOperand)
	if err != nil {
		return "", "", err
	}
	op, err := randomIntRange(r, 0, 2)
	if err != nil {
		return "", "", err
	}

	var symbol string
	var result int
	switch op {
	case 0:
		symbol, result = "+", a+b
	case 1:
		if a < b {
			a, b = b, a
		}
		symbol, result = "-", a-b
	default:
		symbol, result = "×", a*b
	}

	return fmt.Sprintf("What is %d %s %d?", a, symbol, b), strconv.Itoa(result), nil
}

func checkArithmetic(expected, submitted string) bool {
	submitted = strings.TrimSpace(submitted)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}

// proofOfWorkDigest is hex(sha256(prefix + ":" + solution)).
func proofOfWorkDigest(prefix, solution string) string {
	sum := sha256.Sum256([]byte(prefix + ":" + solution))
	return hex.EncodeToString(sum[:])
}

func leadingHexZeros(digest string) int {
	n := 0
	for n < len(digest) && digest[n] == '0' {
		n++
	}
	return n
}

// CheckProofOfWork accepts solution iff the digest of prefix:solution starts
// with at least difficulty zero hex characters.
func CheckProofOfWork(prefix, solution string, difficulty int) bool {
	if solution == "" || len(solution) > MaxSolutionLength || difficulty < 0 {
		return false
	}
	return leadingHexZeros(proofOfWorkDigest(prefix, solution)) >= difficulty
}

// SolveProofOfWork brute forces a decimal counter suffix. Used by tooling and tests;
// the server never needs to solve its own puzzles.
func SolveProofOfWork(prefix string, difficulty int, maxIterations int) (string, bool) {
	for i := 0; i < maxIterations; i++ {
		candidate := strconv.Itoa(i)
		if CheckProofOfWork(prefix, candidate, difficulty) {
			return candidate, true
		}
	}
	return "", false
}
