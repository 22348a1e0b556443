package ledger

import (
	"regexp"
	"strings"
	"unicode"
)

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{4,30}$`)

// NormalizeIBAN remove espaços (inclusive internos); não altera caixa
func NormalizeIBAN(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// ValidIBAN checa apenas o formato, sem dígito verificador
func ValidIBAN(raw string) bool {
	return ibanPattern.MatchString(NormalizeIBAN(raw))
}
