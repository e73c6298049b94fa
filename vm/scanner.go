package vm

type Scanner struct {
	start, curr, line int
	src               []rune
}

func NewScanner(src string) *Scanner {
	return &Scanner{src: []rune(src), line: 1}
}

// ScanToken returns the next token in the source.
// Once the input is exhausted, every further call yields TEOF.
func (s *Scanner) ScanToken() Token {
	s.skipWhitespace()
	s.start = s.curr
	if s.isAtEnd() {
		return s.makeToken(TEOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c): // Identifier or keyword.
		for isAlpha(s.peek()) || isDigit(s.peek()) {
			s.advance()
		}
		return s.makeToken(s.identType())

	case isDigit(c): // Number literal.
		// Consume the integral part.
		for isDigit(s.peek()) {
			s.advance()
		}

		// Consume the fractional part if it exists.
		if s.peek() == '.' && isDigit(s.peekNext()) {
			s.advance()
			for isDigit(s.peek()) {
				s.advance()
			}
		}

		return s.makeToken(TNum)
	}

	switch c {
	case '(':
		return s.makeToken(TLParen)
	case ')':
		return s.makeToken(TRParen)
	case '[':
		return s.makeToken(TLBracket)
	case ']':
		return s.makeToken(TRBracket)
	case '{':
		return s.makeToken(TLBrace)
	case '}':
		return s.makeToken(TRBrace)
	case '+':
		return s.makeToken(TPlus)
	case '*':
		return s.makeToken(TStar)
	case '/':
		return s.makeToken(TSlash)
	case ',':
		return s.makeToken(TComma)
	case '!':
		return s.makeToken(TBang)
	case '&':
		return s.makeToken(TBitAnd)
	case '|':
		return s.makeToken(TBitOr)
	case '~':
		return s.makeToken(TBitNeg)
	case ';':
		return s.makeToken(TSemi)

	case '=':
		if s.match('=') {
			return s.makeToken(TEqualEqual)
		}
		return s.makeToken(TEqual)

	case '-':
		if s.match('>') {
			return s.makeToken(TArrow)
		}
		return s.makeToken(TMinus)

	case ':':
		if s.match('=') {
			return s.makeToken(TWalrus)
		}
		return s.makeToken(TColon)

	case '>':
		if s.match('=') {
			return s.makeToken(TGreaterEqual)
		}
		return s.makeToken(TGreater)

	case '<':
		switch {
		case s.match('='):
			return s.makeToken(TLessEqual)
		case s.match('>'):
			return s.makeToken(TNotEqual)
		}
		return s.makeToken(TLess)

	case '"', '\'': // String literal.
		return s.str(c)
	}

	return s.errorToken("unexpected character")
}

func (s *Scanner) str(delim rune) Token {
	for !s.isAtEnd() && s.peek() != delim {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.isAtEnd() {
		return s.errorToken("unterminated string")
	}
	// Consume the closing quote.
	s.advance()
	return s.makeToken(TStr)
}

// skipWhitespace makes the Scanner skip consecutive whitespaces and comments.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case '\n':
			s.line++
			fallthrough

		case ' ', '\r', '\t':
			s.advance()

		case '#': // Skip comments until the end of the line.
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}

		default:
			return
		}
	}
}

func (s *Scanner) identType() TokenType {
	lexeme := s.src[s.start:s.curr]
	checkKeyword := func(start int, rest string, ty TokenType) TokenType {
		if string(lexeme[start:]) == rest {
			return ty
		}
		return TIdent
	}

	switch lexeme[0] {
	case 'a':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'n':
				return checkKeyword(2, "d", TAnd)
			case 'g':
				return checkKeyword(2, "ainst", TAgainst)
			}
		}
	case 'e':
		if len(lexeme) > 2 && lexeme[1] == 'l' {
			switch lexeme[2] {
			case 'i':
				return checkKeyword(3, "f", TElif)
			case 's':
				return checkKeyword(3, "e", TElse)
			}
		}
	case 'f':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'a':
				return checkKeyword(2, "lse", TFalse)
			case 'o':
				return checkKeyword(2, "r", TFor)
			case 'u':
				return checkKeyword(2, "nc", TFunc)
			}
		}
	case 'i':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'f':
				return checkKeyword(2, "", TIf)
			case 'm':
				return checkKeyword(2, "port", TImport)
			case 's':
				return checkKeyword(2, "", TIs)
			}
		}
	case 'm':
		return checkKeyword(1, "atch", TMatch)
	case 'n':
		return checkKeyword(1, "ull", TNull)
	case 'o':
		return checkKeyword(1, "r", TOr)
	case 'p':
		return checkKeyword(1, "rint", TPrint)
	case 'r':
		return checkKeyword(1, "eturn", TReturn)
	case 's':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'e':
				return checkKeyword(2, "lf", TSelf)
			case 't':
				return checkKeyword(2, "ruct", TStruct)
			}
		}
	case 't':
		return checkKeyword(1, "rue", TTrue)
	case 'w':
		return checkKeyword(1, "hile", TWhile)
	}
	return TIdent
}

func (s *Scanner) isAtEnd() bool { return s.curr >= len(s.src) }

func (s *Scanner) advance() (res rune) {
	res = s.src[s.curr]
	s.curr++
	return
}

func (s *Scanner) peek() (res rune) {
	if s.isAtEnd() {
		return
	}
	return s.src[s.curr]
}

func (s *Scanner) peekNext() (res rune) {
	if s.isAtEnd() || s.curr+1 >= len(s.src) {
		return
	}
	return s.src[s.curr+1]
}

func (s *Scanner) match(expected rune) bool {
	if s.isAtEnd() || s.peek() != expected {
		return false
	}
	s.curr++
	return true
}

func (s *Scanner) makeToken(ty TokenType) Token {
	return Token{Type: ty, Runes: s.src[s.start:s.curr], Line: s.line}
}

func (s *Scanner) errorToken(reason string) Token {
	return Token{Type: TErr, Runes: []rune(reason), Line: s.line}
}

func isAlpha(c rune) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
func isDigit(c rune) bool { return c >= '0' && c <= '9' }
