package orgs

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	KeyMinLength         = 1
	KeyMaxLength         = 255
	NameMinLength        = 1
	NameMaxLength        = 255
	DescriptionMaxLength = 256
	URLMaxLength         = 256
)

// Validation checks the fields of an organization. Every check returns the value to
// store or a *ValidationError.
type Validation interface {
	CheckKey(key string) (string, error)
	CheckName(name string) (string, error)
	CheckDescription(description *string) (*string, error)
	CheckURL(url *string) (*string, error)
	CheckAvatar(avatar *string) (*string, error)
	// GenerateKeyFrom derives a valid key from arbitrary text, such as a login
	GenerateKeyFrom(source string) string
}

var (
	keyPattern     = regexp.MustCompile(`^[a-z0-9_-]*$`)
	invalidKeyRuns = regexp.MustCompile(`[^a-z0-9_-]+`)
	hyphenRuns     = regexp.MustCompile(`-{2,}`)
)

// Validator implements Validation with go-playground/validator rules
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	v := validator.New()
	err := v.RegisterValidation("orgkey", func(fl validator.FieldLevel) bool {
		return keyPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("orgs: registering orgkey validation: %v", err))
	}
	return &Validator{validate: v}
}

// CheckKey checks the length and the characters of a key
func (v *Validator) CheckKey(key string) (string, error) {
	rules := []struct {
		tag     string
		message string
	}{
		{fmt.Sprintf("min=%d", KeyMinLength), fmt.Sprintf("Key '%s' must be at least %d chars long", key, KeyMinLength)},
		{fmt.Sprintf("max=%d", KeyMaxLength), fmt.Sprintf("Key '%s' must be at most %d chars long", key, KeyMaxLength)},
		{"orgkey", fmt.Sprintf("Key '%s' contains at least one invalid char", key)},
	}
	for _, rule := range rules {
		if !v.satisfies(key, rule.tag) {
			return "", &ValidationError{Field: "key", Message: rule.message}
		}
	}
	return key, nil
}

// CheckName trims the name and checks its length
func (v *Validator) CheckName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !v.satisfies(name, fmt.Sprintf("min=%d", NameMinLength)) {
		return "", invalidArgument("name", "Name '%s' must be at least %d chars long", name, NameMinLength)
	}
	if !v.satisfies(name, fmt.Sprintf("max=%d", NameMaxLength)) {
		return "", invalidArgument("name", "Name '%s' must be at most %d chars long", name, NameMaxLength)
	}
	return name, nil
}

// CheckDescription checks the length of an optional description
func (v *Validator) CheckDescription(description *string) (*string, error) {
	return v.checkOptional("description", "Description", description, DescriptionMaxLength)
}

// CheckURL checks the length of an optional url
func (v *Validator) CheckURL(url *string) (*string, error) {
	return v.checkOptional("url", "Url", url, URLMaxLength)
}

// CheckAvatar checks the length of an optional avatar url
func (v *Validator) CheckAvatar(avatar *string) (*string, error) {
	return v.checkOptional("avatar", "Avatar", avatar, URLMaxLength)
}

// GenerateKeyFrom lowercases the source, strips accents, replaces every run of
// characters not allowed in a key by a hyphen and cuts the result to KeyMaxLength.
// Letters without an ASCII base, such as "日" or "ø", count as disallowed.
func (v *Validator) GenerateKeyFrom(source string) string {
	key := stripAccents(source)
	key = strings.ToLower(key)
	key = strings.Join(strings.Fields(key), "-")
	key = invalidKeyRuns.ReplaceAllString(key, "-")
	key = hyphenRuns.ReplaceAllString(key, "-")
	key = strings.Trim(key, "-")
	if len(key) > KeyMaxLength {
		key = strings.TrimRight(key[:KeyMaxLength], "-")
	}
	return key
}

func (v *Validator) checkOptional(field, label string, value *string, maxLength int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	if !v.satisfies(*value, fmt.Sprintf("max=%d", maxLength)) {
		return nil, invalidArgument(field, "%s '%s' must be at most %d chars long", label, *value, maxLength)
	}
	return value, nil
}

func (v *Validator) satisfies(value, tag string) bool {
	err := v.validate.Var(value, tag)
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return false
	}
	return err == nil
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
