package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestLocalizer_Resolve(t *testing.T) {
	l := New("pt-BR")

	testCases := []struct {
		name   string
		header string
		want   language.Tag
	}{
		{"empty", "", language.BrazilianPortuguese},
		{"exact english", "en-US", language.AmericanEnglish},
		{"generic english", "en;q=0.9", language.AmericanEnglish},
		{"generic portuguese", "pt", language.BrazilianPortuguese},
		{"preference order", "en-US,pt-BR;q=0.5", language.AmericanEnglish},
		{"garbage", "!!!", language.BrazilianPortuguese},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, l.Resolve(tc.header))
		})
	}
}

func TestNew_Fallback(t *testing.T) {
	assert.Equal(t, language.AmericanEnglish, New("en-US").Default())
	assert.Equal(t, language.BrazilianPortuguese, New("de-DE").Default())
	assert.Equal(t, language.BrazilianPortuguese, New("").Default())
}

func TestLocalizer_Notice_Portuguese(t *testing.T) {
	l := New("pt-BR")
	pt := language.BrazilianPortuguese

	testCases := []struct {
		notice  Notice
		args    []any
		title   string
		desc    string
		variant string
	}{
		{SignUpSucceeded, nil, "Cadastro realizado!", "Verifique seu email para confirmar a conta.", VariantDefault},
		{SignUpFailed, []any{"User already registered"}, "Erro no cadastro", "User already registered", VariantDestructive},
		{SignInSucceeded, nil, "Login realizado!", "Bem-vindo de volta!", VariantDefault},
		{SignInFailed, []any{"Invalid login credentials"}, "Erro no login", "Invalid login credentials", VariantDestructive},
		{SignOutSucceeded, nil, "Logout realizado", "Até logo!", VariantDefault},
		{SignOutFailed, []any{"boom"}, "Erro ao sair", "boom", VariantDestructive},
		{TooManyAttempts, []any{90}, "Muitas tentativas", "Tente novamente em 90 segundos.", VariantDestructive},
	}

	for _, tc := range testCases {
		t.Run(tc.title, func(t *testing.T) {
			n := l.Notice(pt, tc.notice, tc.args...)
			assert.Equal(t, tc.title, n.Title)
			assert.Equal(t, tc.desc, n.Description)
			assert.Equal(t, tc.variant, n.Variant)
		})
	}
}

func TestLocalizer_Notice_English(t *testing.T) {
	l := New("pt-BR")

	n := l.Notice(language.AmericanEnglish, SignInSucceeded)

	assert.Equal(t, "Signed in!", n.Title)
	assert.Equal(t, "Welcome back!", n.Description)
}

func TestLocalizer_Notice_ProviderMessageIsVerbatim(t *testing.T) {
	l := New("pt-BR")
	msg := "Email rate limit exceeded: 100% used"

	n := l.Notice(language.AmericanEnglish, SignInFailed, msg)

	assert.Equal(t, msg, n.Description)
}
