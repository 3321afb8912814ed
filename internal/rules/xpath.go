// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import "strings"

// Placeholder in an xpath template stands for the record's primary type,
// so one table serves party, activity and service records alike.
const Placeholder = "[[PRIMARY_RECORD_TYPE_TAG]]"

// Substitute replaces every Placeholder in xpath with primary.
func Substitute(xpath, primary string) string {
	return strings.ReplaceAll(xpath, Placeholder, primary)
}

// Qualify prefixes every element name test in a relative xpath with
// prefix, e.g. "rif:". Name tests inside predicates are qualified too.
// Attributes, wildcards, function and axis names, operator names, quoted
// literals and names that already carry a prefix are left alone. An empty
// prefix returns xpath unchanged.
func Qualify(xpath, prefix string) string {
	if prefix == "" || xpath == "" {
		return xpath
	}
	var b strings.Builder
	b.Grow(len(xpath) + 8*len(prefix))

	// operand is true when the previous token ends an operand, which makes
	// a following name an operator such as "and" or a following '*' a
	// multiplication.
	operand := false
	// verbatim is set after '@' and the attribute axis: the next name is
	// an attribute.
	verbatim := false
	for i := 0; i < len(xpath); {
		c := xpath[i]
		switch {
		case c == '\'' || c == '"':
			end := len(xpath)
			if j := strings.IndexByte(xpath[i+1:], c); j >= 0 {
				end = i + j + 2
			}
			b.WriteString(xpath[i:end])
			i, operand = end, true
		case isNameStart(c):
			j := i + 1
			for j < len(xpath) && isNameChar(xpath[j]) {
				j++
			}
			name, rest := xpath[i:j], strings.TrimLeft(xpath[j:], " \t\n")
			switch {
			case operand && !verbatim:
				b.WriteString(name)
				operand = false
			case strings.HasPrefix(rest, "::"):
				j += len(xpath[j:]) - len(rest) + 2
				b.WriteString(xpath[i:j])
				verbatim = name == "attribute" || name == "namespace"
				operand = false
			case strings.HasPrefix(rest, "("):
				b.WriteString(name)
				operand = false
			case strings.HasPrefix(rest, ":"):
				// Already prefixed: copy the local part as well.
				j += len(xpath[j:]) - len(rest) + 1
				for j < len(xpath) && (isNameChar(xpath[j]) || xpath[j] == '*') {
					j++
				}
				b.WriteString(xpath[i:j])
				operand, verbatim = true, false
			case verbatim:
				b.WriteString(name)
				operand, verbatim = true, false
			default:
				b.WriteString(prefix)
				b.WriteString(name)
				operand = true
			}
			i = j
		case c >= '0' && c <= '9', c == '.' && i+1 < len(xpath) && isDigit(xpath[i+1]):
			j := i + 1
			for j < len(xpath) && (isDigit(xpath[j]) || xpath[j] == '.') {
				j++
			}
			b.WriteString(xpath[i:j])
			i, operand = j, true
		case c == '.':
			b.WriteByte(c)
			i++
			operand = true
		case c == '@':
			b.WriteByte(c)
			i++
			verbatim, operand = true, false
		case c == '$':
			j := i + 1
			for j < len(xpath) && isNameChar(xpath[j]) {
				j++
			}
			b.WriteString(xpath[i:j])
			i, operand = j, true
		case c == '*':
			b.WriteByte(c)
			i++
			operand, verbatim = !operand || verbatim, false
		case c == ')' || c == ']':
			b.WriteByte(c)
			i++
			operand = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
			operand, verbatim = false, false
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-' || c == '.'
}
