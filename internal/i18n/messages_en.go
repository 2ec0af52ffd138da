package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.AmericanEnglish

	message.SetString(lang, "notice.signup.failed.title", "Sign up failed")
	message.SetString(lang, "notice.signup.failed.description", "%s")
	message.SetString(lang, "notice.signup.succeeded.title", "Account created!")
	message.SetString(lang, "notice.signup.succeeded.description", "Check your email to confirm your account.")
	message.SetString(lang, "notice.signup.incomplete.description", "We could not finish creating your account. Please try again.")

	message.SetString(lang, "notice.signin.failed.title", "Sign in failed")
	message.SetString(lang, "notice.signin.failed.description", "%s")
	message.SetString(lang, "notice.signin.succeeded.title", "Signed in!")
	message.SetString(lang, "notice.signin.succeeded.description", "Welcome back!")
	message.SetString(lang, "notice.signin.throttled.title", "Too many attempts")
	message.SetString(lang, "notice.signin.throttled.description", "Try again in %d seconds.")

	message.SetString(lang, "notice.signout.failed.title", "Sign out failed")
	message.SetString(lang, "notice.signout.failed.description", "%s")
	message.SetString(lang, "notice.signout.succeeded.title", "Signed out")
	message.SetString(lang, "notice.signout.succeeded.description", "See you soon!")
}
