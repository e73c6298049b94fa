package vm

type Token struct {
	Type TokenType
	// Runes is the lexeme, sliced from the source.
	// For TErr, it holds the error message instead.
	Runes []rune
	Line  int
}

func (t Token) String() string { return string(t.Runes) }

// Eq reports whether two tokens share the same lexeme.
func (t Token) Eq(u Token) bool {
	if len(t.Runes) != len(u.Runes) {
		return false
	}
	for i, r := range t.Runes {
		if u.Runes[i] != r {
			return false
		}
	}
	return true
}

//go:generate stringer -type=TokenType
type TokenType int

const (
	TLParen TokenType = iota
	TRParen
	TLBracket
	TRBracket
	TLBrace
	TRBrace
	TMinus
	TPlus
	TStar
	TSlash
	TComma
	TColon
	TBang
	TEqual
	TEqualEqual
	TBitAnd
	TBitOr
	TBitNeg
	TSemi
	TNotEqual
	TGreater
	TGreaterEqual
	TLess
	TLessEqual
	TArrow
	TWalrus
	TNum
	TStr
	TIdent
	TAnd
	TOr
	TFunc
	TStruct
	TSelf
	TFor
	TWhile
	TIf
	TElif
	TElse
	TMatch
	TAgainst
	TIs
	TTrue
	TFalse
	TNull
	TImport
	TReturn
	TPrint
	TErr
	TEOF
)
