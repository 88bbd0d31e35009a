package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexer_TokenizesOperatorsAndDelimiters(t *testing.T) {
	l := NewLexer(`RPM[1]@2.5s + (MAP - 3) * sqrt(AFR)`)

	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}

	assert.Equal(t, []TokenType{
		TokenIdent, TokenLBracket, TokenNumber, TokenRBracket, TokenAt, TokenNumber, TokenIdent,
		TokenPlus, TokenLParen, TokenIdent, TokenMinus, TokenNumber, TokenRParen, TokenStar,
		TokenIdent, TokenLParen, TokenIdent, TokenRParen, TokenEOF,
	}, types)
}

func TestLexer_QuotedIdentWithSpecialChars(t *testing.T) {
	l := NewLexer(`"A/F Sensor #1 (AFR)"`)
	tok := l.NextToken()
	assert.Equal(t, TokenQuotedIdent, tok.Type)
	assert.Equal(t, "A/F Sensor #1 (AFR)", tok.Literal)
}

func TestLexer_UnterminatedQuotedIdentIsIllegal(t *testing.T) {
	l := NewLexer(`"unterminated`)
	tok := l.NextToken()
	assert.Equal(t, TokenIllegal, tok.Type)
}

func TestLexer_ScientificNotationNumber(t *testing.T) {
	l := NewLexer("1.5e-3")
	tok := l.NextToken()
	assert.Equal(t, TokenNumber, tok.Type)
	assert.Equal(t, "1.5e-3", tok.Literal)
}
