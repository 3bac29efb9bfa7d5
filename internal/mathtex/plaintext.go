package mathtex

import (
	"strings"
	"unicode/utf8"
)

var symbolText = map[string]string{
	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "ne": "≠", "neq": "≠",
	"lt": "<", "gt": ">", "approx": "≈", "equiv": "≡", "sim": "∼",
	"times": "×", "cdot": "·", "div": "÷", "pm": "±", "mp": "∓",
	"infty": "∞", "circ": "°", "degree": "°", "angle": "∠", "perp": "⊥", "parallel": "∥",
	"pi": "π", "theta": "θ", "alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ",
	"Delta": "Δ", "sigma": "σ", "Sigma": "Σ", "mu": "μ", "lambda": "λ", "omega": "ω",
	"sum": "Σ", "prod": "Π", "in": "∈", "notin": "∉", "cup": "∪", "cap": "∩",
	"subset": "⊂", "subseteq": "⊆", "emptyset": "∅", "varnothing": "∅",
	"to": "→", "rightarrow": "→", "Rightarrow": "⇒", "implies": "⇒",
	"leftarrow": "←", "Leftarrow": "⇐", "Leftrightarrow": "⇔", "iff": "⇔",
	"ldots": "…", "dots": "…", "cdots": "⋯", "therefore": "∴",
	"quad": " ", "qquad": " ", "not": "not ", "neg": "¬", "lvert": "|", "rvert": "|",
	"mid": "|", "vert": "|", "lceil": "⌈", "rceil": "⌉", "lfloor": "⌊", "rfloor": "⌋",
}

// Commands whose single argument is shown verbatim.
var passThroughCommands = map[string]bool{
	"text": true, "textbf": true, "textit": true, "mathrm": true, "mathbf": true,
	"mathit": true, "operatorname": true, "boxed": true, "overline": true, "underline": true,
	"mbox": true,
}

// Commands with no visible output.
var silentCommands = map[string]bool{
	"left": true, "right": true, "displaystyle": true, "textstyle": true,
	"big": true, "Big": true, "bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
	"limits": true, "nolimits": true,
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶', '7': '⁷',
	'8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾', 'n': 'ⁿ',
	'i': 'ⁱ', 'x': 'ˣ', 'y': 'ʸ', 'k': 'ᵏ', 'm': 'ᵐ', '°': '°',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆', '7': '₇',
	'8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎',
	'a': 'ₐ', 'e': 'ₑ', 'i': 'ᵢ', 'k': 'ₖ', 'n': 'ₙ', 'm': 'ₘ', 'x': 'ₓ',
}

// PlainText renders expr as readable Unicode text for aria labels and
// search. It is lossy by nature and never fails.
func PlainText(expr string) string {
	p := &textParser{src: expr}
	out := p.sequence(0)
	return strings.Join(strings.Fields(out), " ")
}

type textParser struct {
	src string
	pos int
}

// sequence reads until the closing rune (0 for end of input).
func (p *textParser) sequence(closing byte) string {
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if closing != 0 && c == closing {
			p.pos++
			return b.String()
		}
		b.WriteString(p.token())
	}
	return b.String()
}

// token consumes one unit and returns its text.
func (p *textParser) token() string {
	c := p.src[p.pos]
	switch c {
	case '{':
		p.pos++
		return p.sequence('}')
	case '}':
		p.pos++
		return ""
	case '^':
		p.pos++
		return scripted(p.argument(), superscripts, "^")
	case '_':
		p.pos++
		return scripted(p.argument(), subscripts, "_")
	case '&':
		p.pos++
		return " "
	case '~':
		p.pos++
		return " "
	case '\\':
		return p.command()
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return string(r)
}

func (p *textParser) command() string {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return ""
	}
	c := p.src[p.pos]
	if !isLetter(c) {
		p.pos++
		switch c {
		case ',', ';', ':', ' ', '!':
			return " "
		case '\\':
			return "; "
		default:
			return string(c)
		}
	}
	name, end := readCommand(p.src, p.pos)
	p.pos = end

	switch {
	case name == "frac" || name == "dfrac" || name == "tfrac":
		num := p.argument()
		den := p.argument()
		return wrapOperand(num) + "/" + wrapOperand(den)
	case name == "sqrt":
		index := ""
		if p.pos < len(p.src) && p.src[p.pos] == '[' {
			p.pos++
			index = p.sequence(']')
		}
		radicand := p.argument()
		prefix := ""
		if index != "" {
			prefix = scripted(index, superscripts, "")
		}
		return prefix + "√" + wrapOperand(radicand)
	case name == "binom":
		n := p.argument()
		k := p.argument()
		return "C(" + n + ", " + k + ")"
	case name == "begin" || name == "end":
		if _, next, ok := readGroupArg(p.src, p.pos); ok {
			p.pos = next
		}
		return " "
	case passThroughCommands[name]:
		return p.argument()
	case silentCommands[name]:
		if (name == "left" || name == "right") && p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
		}
		return ""
	}
	if sym, ok := symbolText[name]; ok {
		return sym
	}
	// \log, \sin, \max ...
	return name
}

// argument reads a braced group or a single token.
func (p *textParser) argument() string {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return ""
	}
	return p.token()
}

func scripted(text string, table map[rune]rune, marker string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range text {
		mapped, ok := table[r]
		if !ok {
			if marker == "" {
				return text
			}
			return marker + wrapOperand(text)
		}
		b.WriteRune(mapped)
	}
	return b.String()
}

func wrapOperand(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= 1 || isNumber(s) {
		return s
	}
	return "(" + s + ")"
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
