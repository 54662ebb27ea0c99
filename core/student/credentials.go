package student

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trezcool/libwork/core"
)

const (
	passwordNameLen   = 4
	passwordMobileLen = 4
)

// DerivePassword builds a student's login password: the first 4 letters of the
// upper-cased name (anything outside A-Z dropped) followed by the last 4 characters
// of the mobile. Short names give short passwords. Upper-casing applies the full
// case mappings, so "ß" becomes "SS".
func DerivePassword(fullName, mobile string) string {
	var b strings.Builder
	for _, r := range cases.Upper(language.Und).String(fullName) {
		if b.Len() == passwordNameLen {
			break
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String() + core.LastN(mobile, passwordMobileLen)
}

// LoginName returns the login name of the student holding mobile.
func LoginName(mobile string) string {
	return mobile
}
