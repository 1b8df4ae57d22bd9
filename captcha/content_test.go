package captcha

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/multicaptcha/errors"
)

func TestGenerateRandomCode_Properties(t *testing.T) {
	charsets := []string{CharsetLowercase, CharsetNumbers, "ab", "αβγδε"}

	for _, charset := range charsets {
		for seed := range uint64(50) {
			length := 1 + int(seed)%len([]rune(charset))
			content, err := GenerateRandomCode(NewSeededRand(seed), charset, length)
			require.NoError(t, err)

			runes := []rune(content.Text)
			require.Len(t, runes, length)
			seen := map[rune]bool{}
			for _, r := range runes {
				assert.True(t, strings.ContainsRune(charset, r), "rune %q not in %q", r, charset)
				assert.False(t, seen[r], "rune %q repeated in %q", r, content.Text)
				seen[r] = true
			}
			assert.Equal(t, content.Text, content.Answer)
			assert.Equal(t, TypeRandomCode, content.Type)
			assert.Zero(t, content.Result)
		}
	}
}

func TestGenerateRandomCode_FullCharset(t *testing.T) {
	content, err := GenerateRandomCode(NewSeededRand(3), "xyz", 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []rune("xyz"), []rune(content.Text))
}

func TestGenerateRandomCode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		charset string
		length  int
	}{
		{"empty charset", "", 1},
		{"too long", "abc", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateRandomCode(NewSeededRand(1), tt.charset, tt.length)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			assert.Equal(t, 400, apperrors.StatusOf(err))
		})
	}
}

var mathToken = regexp.MustCompile(`\d+|[+-]`)

func TestGenerateMathExpression_Properties(t *testing.T) {
	for seed := range uint64(300) {
		content, err := GenerateMathExpression(NewSeededRand(seed), 9, 3)
		require.NoError(t, err)

		tokens := mathToken.FindAllString(content.Text, -1)
		require.Len(t, tokens, 5, content.Text)
		assert.Equal(t, strings.Join(tokens, ""), content.Text)

		running := 0
		for i, tok := range tokens {
			if i%2 == 1 {
				continue
			}
			n, err := strconv.Atoi(tok)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, n, 1, content.Text)
			assert.LessOrEqual(t, n, 9, content.Text)

			switch {
			case i == 0:
				running = n
			case tokens[i-1] == "+":
				running += n
			default:
				running -= n
			}
			assert.GreaterOrEqual(t, running, 1, "running value dropped below 1 in %s", content.Text)
		}

		evaluated, err := EvaluateExpression(content.Text)
		require.NoError(t, err)
		assert.Equal(t, evaluated, content.Result)
		assert.Equal(t, strconv.Itoa(content.Result), content.Answer)
		assert.Equal(t, TypeMath, content.Type)
	}
}

func TestGenerateMathExpression_ClampsOperandCount(t *testing.T) {
	for _, count := range []int{-3, 0, 1, 2} {
		content, err := GenerateMathExpression(NewSeededRand(9), 9, count)
		require.NoError(t, err)
		assert.Len(t, mathToken.FindAllString(content.Text, -1), 3, "count %d gave %s", count, content.Text)
	}
}

func TestGenerateMathExpression_InvalidMax(t *testing.T) {
	_, err := GenerateMathExpression(NewSeededRand(1), 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestGenerateMathExpression_OneForcesAddition(t *testing.T) {
	// r = 1: no coin, '+1' -> 2; coin picks '-', n from [1, min(1, 1)] -> 1;
	// r = 1 again: no coin, '+1' -> 2.
	rng := &scriptedRand{ints: []int{0, 0, 0, 0, 0}}
	content, err := GenerateMathExpression(rng, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, "1+1-1+1", content.Text)
	assert.Equal(t, 2, content.Result)
	assert.Equal(t, []int{1, 1, 2, 1, 1}, rng.bound)
}

func TestGenerateMathExpression_SubtractionBoundAtMax(t *testing.T) {
	// r = 9 (== max), '-', n drawn from [1, 8]; then r = 1 forces '+'.
	rng := &scriptedRand{ints: []int{8, 0, 7, 0}}
	content, err := GenerateMathExpression(rng, 9, 3)
	require.NoError(t, err)

	assert.Equal(t, "9-8+1", content.Text)
	assert.Equal(t, 2, content.Result)
	assert.Equal(t, []int{9, 2, 8, 9}, rng.bound)
}

func TestGenerateMathExpression_SubtractionBoundAboveMax(t *testing.T) {
	// r grows past max through '+', so '-' may draw up to max.
	rng := &scriptedRand{ints: []int{4, 1, 4, 0, 4}}
	content, err := GenerateMathExpression(rng, 5, 3)
	require.NoError(t, err)

	assert.Equal(t, "5+5-5", content.Text)
	assert.Equal(t, 5, content.Result)
	assert.Equal(t, []int{5, 2, 5, 2, 5}, rng.bound)
}

func TestEvaluateExpression(t *testing.T) {
	tests := []struct {
		expr    string
		want    int
		wantErr bool
	}{
		{"7", 7, false},
		{"3+4-2", 5, false},
		{"12-3+10", 19, false},
		{"", 0, true},
		{"+3", 0, true},
		{"3+", 0, true},
		{"3*4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := EvaluateExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
