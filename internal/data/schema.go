package data

import (
	"errors"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"techform/internal/validator"
)

const (
	AllowedEmailSuffix = "@gmail.com"
	MinPasswordLength  = 6
	MinKnowledge       = 1
	MaxKnowledge       = 100
	MinTechs           = 2
)

// EmailRX approximates the usual browser-side address check: a dotted local part
// that neither starts with a dot nor contains "..", and a host with a 2+ letter TLD.
var EmailRX = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)

var (
	// decimalRX is the text a numeric form field accepts: an optional sign, then
	// Infinity or digits with an optional fraction and exponent.
	decimalRX = regexp.MustCompile(`^[+-]?(?:Infinity|(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)$`)
	// radixRX matches unsigned 0x, 0o and 0b integer literals.
	radixRX = regexp.MustCompile(`^0(?:[xX][0-9a-fA-F]+|[oO][0-7]+|[bB][01]+)$`)
)

var (
	fieldName     = validator.Field("name")
	fieldEmail    = validator.Field("email")
	fieldPassword = validator.Field("password")
	fieldTechs    = validator.Field("techs")
)

// Result is the outcome of validating a FormInput. Value is meaningful only when OK.
type Result struct {
	Value  FormValues             `json:"value"`
	Errors []validator.FieldError `json:"errors,omitempty"`
}

// OK reports whether validation passed.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// ErrorMap returns messages keyed by dotted field path, or nil when OK.
func (r Result) ErrorMap() map[string]string {
	if r.OK() {
		return nil
	}
	m := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		m[fe.Path.String()] = fe.Message
	}
	return m
}

// Schema validates and transforms sign-up form input.
type Schema struct {
	messages Messages
}

// NewSchema returns a Schema reporting failures with the given messages.
func NewSchema(messages Messages) *Schema {
	return &Schema{messages: messages}
}

// Messages returns the catalog the schema reports with.
func (s *Schema) Messages() Messages {
	return s.messages
}

// step is one stage of a field pipeline. It returns the (possibly transformed)
// value, or false to stop the pipeline with the step's error.
type step struct {
	kind    validator.Kind
	message string
	apply   func(string) (string, bool)
}

func check(kind validator.Kind, message string, ok func(string) bool) step {
	return step{kind: kind, message: message, apply: func(s string) (string, bool) {
		return s, ok(s)
	}}
}

func transform(fn func(string) string) step {
	return step{apply: func(s string) (string, bool) {
		return fn(s), true
	}}
}

// run feeds value through steps, recording the first failure at path.
func run(v *validator.Validator, path validator.Path, value string, steps ...step) string {
	for _, st := range steps {
		next, ok := st.apply(value)
		if !ok {
			v.AddError(path, st.kind, st.message)
			return value
		}
		value = next
	}
	return value
}

// Validate checks every field independently and aggregates all failures.
// It is a pure function of its input.
func (s *Schema) Validate(in FormInput) Result {
	v := validator.New()
	m := s.messages

	var out FormValues

	out.Name = run(v, fieldName, in.Name,
		check(validator.RequiredField, m.NameRequired, func(s string) bool { return strings.TrimSpace(s) != "" }),
		transform(CapitalizeWords),
	)

	out.Email = run(v, fieldEmail, in.Email,
		check(validator.RequiredField, m.EmailRequired, func(s string) bool { return s != "" }),
		check(validator.InvalidFormat, m.EmailInvalid, isEmail),
		transform(strings.ToLower),
		check(validator.DomainNotAllowed, m.EmailDomain, func(s string) bool {
			return strings.HasSuffix(s, AllowedEmailSuffix)
		}),
	)

	out.Password = run(v, fieldPassword, in.Password,
		check(validator.TooShort, m.PasswordTooShort, func(s string) bool {
			return utf8.RuneCountInString(s) >= MinPasswordLength
		}),
	)

	out.Techs = make([]TechEntry, 0, len(in.Techs))
	for i, t := range in.Techs {
		entry := fieldTechs.Index(i)

		title := run(v, entry.Key("title"), t.Title,
			check(validator.RequiredField, m.TechTitleRequired, func(s string) bool { return s != "" }),
		)

		knowledgePath := entry.Key("knowledge")
		knowledge, ok := CoerceNumber(string(t.Knowledge))
		if v.Check(ok, knowledgePath, validator.InvalidFormat, m.KnowledgeInvalid) {
			v.Check(knowledge >= MinKnowledge && knowledge <= MaxKnowledge,
				knowledgePath, validator.OutOfRange, m.KnowledgeRange)
		}

		out.Techs = append(out.Techs, TechEntry{Title: title, Knowledge: knowledge})
	}
	v.Check(len(in.Techs) >= MinTechs, fieldTechs, validator.TooFewEntries, m.TechsTooFew)

	if !v.Valid() {
		return Result{Errors: v.Errors()}
	}
	return Result{Value: out}
}

func isEmail(s string) bool {
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return validator.Matches(s, EmailRX)
}

// CapitalizeWords trims s, splits it on single spaces and upper-cases the first
// character of every word, leaving the rest of each word unchanged.
func CapitalizeWords(s string) string {
	words := strings.Split(strings.TrimSpace(s), " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// CoerceNumber converts text input to a number the way a numeric form field does:
// surrounding whitespace is ignored and empty text is zero. Decimal text, Infinity
// and 0x/0o/0b integers are accepted; anything else (NaN, underscores, hex
// floats) is rejected. Overflowing decimals coerce to ±Inf.
func CoerceNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return 0, true
	case validator.Matches(s, radixRX):
		return parseRadix(s)
	case !validator.Matches(s, decimalRX):
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func parseRadix(s string) (float64, bool) {
	base := 16
	switch s[1] {
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	}

	n, ok := new(big.Int).SetString(s[2:], base)
	if !ok {
		return 0, false
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f, true
}
