package captcha

import (
	"strconv"
	"strings"
)

// GenerateRandomCode 从字符集中不放回地抽取 length 个字符
func GenerateRandomCode(rng Rand, charset string, length int) (Content, error) {
	pool := []rune(charset)
	if len(pool) == 0 {
		return Content{}, invalidConfig("Charset", charset, "is empty")
	}
	if length > len(pool) {
		return Content{}, invalidConfig("CodeLength", length, "exceeds the number of charset characters")
	}

	code := make([]rune, 0, length)
	for range length {
		p := rng.IntN(len(pool))
		code = append(code, pool[p])
		pool = append(pool[:p], pool[p+1:]...)
	}

	text := string(code)
	return Content{Type: TypeRandomCode, Text: text, Answer: text}, nil
}

// GenerateMathExpression 生成只含加减法且中间结果不小于 1 的算式
func GenerateMathExpression(rng Rand, maxOperand, operandCount int) (Content, error) {
	if maxOperand < 1 {
		return Content{}, invalidConfig("MaxOperandValue", maxOperand, "must be at least 1")
	}
	if operandCount < 2 {
		operandCount = 2
	}

	r := 1 + rng.IntN(maxOperand)
	var b strings.Builder
	b.WriteString(strconv.Itoa(r))

	for range operandCount - 1 {
		op := byte('+')
		if r > 1 && rng.IntN(2) == 0 {
			op = '-'
		}

		var n int
		if op == '+' {
			n = 1 + rng.IntN(maxOperand)
			r += n
		} else {
			n = 1 + rng.IntN(min(maxOperand, r-1))
			r -= n
		}
		b.WriteByte(op)
		b.WriteString(strconv.Itoa(n))
	}

	return Content{
		Type:   TypeMath,
		Text:   b.String(),
		Answer: strconv.Itoa(r),
		Result: r,
	}, nil
}

// EvaluateExpression 从左到右计算只含加减法的算式
func EvaluateExpression(expr string) (int, error) {
	total, acc := 0, 0
	sign := 1
	digits := false
	for i, ch := range expr {
		switch {
		case ch >= '0' && ch <= '9':
			acc = acc*10 + int(ch-'0')
			digits = true
		case ch == '+' || ch == '-':
			if !digits {
				return 0, invalidConfig("expression", expr, "operator at offset "+strconv.Itoa(i)+" has no left operand")
			}
			total += sign * acc
			acc, digits = 0, false
			sign = 1
			if ch == '-' {
				sign = -1
			}
		default:
			return 0, invalidConfig("expression", expr, "unexpected character "+strconv.QuoteRune(ch))
		}
	}
	if !digits {
		return 0, invalidConfig("expression", expr, "missing trailing operand")
	}
	return total + sign*acc, nil
}
