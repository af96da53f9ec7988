package data

import "fmt"

// Messages holds the user-facing text for every validation rule.
type Messages struct {
	NameRequired      string
	EmailRequired     string
	EmailInvalid      string
	EmailDomain       string
	PasswordTooShort  string
	TechTitleRequired string
	KnowledgeInvalid  string
	KnowledgeRange    string
	TechsTooFew       string

	StrongPassword string
	WeakPassword   string
}

var EnglishMessages = Messages{
	NameRequired:      "must be provided",
	EmailRequired:     "must be provided",
	EmailInvalid:      "must be a valid email address",
	EmailDomain:       "must be a " + AllowedEmailSuffix + " address",
	PasswordTooShort:  fmt.Sprintf("must be at least %d characters long", MinPasswordLength),
	TechTitleRequired: "must be provided",
	KnowledgeInvalid:  "must be a number",
	KnowledgeRange:    fmt.Sprintf("must be between %d and %d", MinKnowledge, MaxKnowledge),
	TechsTooFew:       fmt.Sprintf("must contain at least %d technologies", MinTechs),
	StrongPassword:    "strong password",
	WeakPassword:      "weak password",
}

var PortugueseMessages = Messages{
	NameRequired:      "O nome é obrigatório",
	EmailRequired:     "O e-mail é obrigatório",
	EmailInvalid:      "Formato de e-mail inválido",
	EmailDomain:       "O e-mail precisa ser da Google",
	PasswordTooShort:  fmt.Sprintf("A senha precisa de no mínimo %d caracteres", MinPasswordLength),
	TechTitleRequired: "O título é obrigatório",
	KnowledgeInvalid:  "O conhecimento precisa ser um número",
	KnowledgeRange:    fmt.Sprintf("O conhecimento precisa estar entre %d e %d", MinKnowledge, MaxKnowledge),
	TechsTooFew:       fmt.Sprintf("Insira pelo menos %d tecnologias", MinTechs),
	StrongPassword:    "Senha forte",
	WeakPassword:      "Senha fraca",
}

// MessagesFor returns the catalog for a locale tag ("en" or "pt-BR").
func MessagesFor(locale string) (Messages, error) {
	switch locale {
	case "", "en":
		return EnglishMessages, nil
	case "pt-BR", "pt":
		return PortugueseMessages, nil
	default:
		return Messages{}, fmt.Errorf("unsupported locale %q", locale)
	}
}

// StrengthLabel returns the indicator text shown next to the password field.
func (m Messages) StrengthLabel(strong bool) string {
	if strong {
		return m.StrongPassword
	}
	return m.WeakPassword
}
