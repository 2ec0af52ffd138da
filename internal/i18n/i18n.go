// Package i18n resolves the request locale and renders user-facing notices.
package i18n

import (
	"strings"

	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

type Notice int

const (
	SignUpFailed Notice = iota
	SignUpSucceeded
	SignInFailed
	SignInSucceeded
	SignOutFailed
	SignOutSucceeded
	TooManyAttempts
	ProvisioningFailed
)

type noticeKeys struct {
	title       string
	description string
	destructive bool
}

// Failure descriptions are "%s" so the provider message passes through
// unchanged.
var notices = map[Notice]noticeKeys{
	SignUpFailed:       {"notice.signup.failed.title", "notice.signup.failed.description", true},
	SignUpSucceeded:    {"notice.signup.succeeded.title", "notice.signup.succeeded.description", false},
	SignInFailed:       {"notice.signin.failed.title", "notice.signin.failed.description", true},
	SignInSucceeded:    {"notice.signin.succeeded.title", "notice.signin.succeeded.description", false},
	SignOutFailed:      {"notice.signout.failed.title", "notice.signout.failed.description", true},
	SignOutSucceeded:   {"notice.signout.succeeded.title", "notice.signout.succeeded.description", false},
	TooManyAttempts:    {"notice.signin.throttled.title", "notice.signin.throttled.description", true},
	ProvisioningFailed: {"notice.signup.failed.title", "notice.signup.incomplete.description", true},
}

var supported = []language.Tag{language.BrazilianPortuguese, language.AmericanEnglish}

type Localizer struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
}

// New builds a Localizer that falls back to defaultLocale, or to pt-BR
// when defaultLocale is not supported.
func New(defaultLocale string) *Localizer {
	fallback := supported[0]
	if tag, err := language.Parse(defaultLocale); err == nil {
		for _, s := range supported {
			if s == tag {
				fallback = s
			}
		}
	}

	tags := []language.Tag{fallback}
	for _, s := range supported {
		if s != fallback {
			tags = append(tags, s)
		}
	}

	return &Localizer{fallback: fallback, tags: tags, matcher: language.NewMatcher(tags)}
}

func (l *Localizer) Default() language.Tag {
	return l.fallback
}

// Resolve picks a supported locale from an Accept-Language header value.
func (l *Localizer) Resolve(acceptLanguage string) language.Tag {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return l.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return l.fallback
	}
	return l.tags[idx]
}

func (l *Localizer) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Notice renders n in tag. args feed the description.
func (l *Localizer) Notice(tag language.Tag, n Notice, args ...any) dto.Notice {
	keys, ok := notices[n]
	if !ok {
		return dto.Notice{Variant: VariantDefault}
	}

	p := l.Printer(tag)
	out := dto.Notice{
		Title:       p.Sprintf(keys.title),
		Description: p.Sprintf(keys.description, args...),
		Variant:     VariantDefault,
	}
	if keys.destructive {
		out.Variant = VariantDestructive
	}
	return out
}
