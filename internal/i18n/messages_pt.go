package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.BrazilianPortuguese

	message.SetString(lang, "notice.signup.failed.title", "Erro no cadastro")
	message.SetString(lang, "notice.signup.failed.description", "%s")
	message.SetString(lang, "notice.signup.succeeded.title", "Cadastro realizado!")
	message.SetString(lang, "notice.signup.succeeded.description", "Verifique seu email para confirmar a conta.")
	message.SetString(lang, "notice.signup.incomplete.description", "Não foi possível concluir o cadastro. Tente novamente.")

	message.SetString(lang, "notice.signin.failed.title", "Erro no login")
	message.SetString(lang, "notice.signin.failed.description", "%s")
	message.SetString(lang, "notice.signin.succeeded.title", "Login realizado!")
	message.SetString(lang, "notice.signin.succeeded.description", "Bem-vindo de volta!")
	message.SetString(lang, "notice.signin.throttled.title", "Muitas tentativas")
	message.SetString(lang, "notice.signin.throttled.description", "Tente novamente em %d segundos.")

	message.SetString(lang, "notice.signout.failed.title", "Erro ao sair")
	message.SetString(lang, "notice.signout.failed.description", "%s")
	message.SetString(lang, "notice.signout.succeeded.title", "Logout realizado")
	message.SetString(lang, "notice.signout.succeeded.description", "Até logo!")
}
