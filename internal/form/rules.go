// Package form implements the form interaction pipeline shared by every form
// on the site: declarative field rules, the per-field state store with
// derived fields, and the submission controller that gates remote calls
// behind validation.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every rule. Validator caches parsed tags and is safe
// for concurrent use.
var validate = validator.New()

// Rule checks a single field value. It returns the error message for an
// invalid value and "" for a valid one. Rules never look at other fields.
type Rule func(value string) string

// tagRule builds a Rule from a validator tag.
func tagRule(tag, message string) Rule {
	return func(value string) string {
		return check(value, tag, message)
	}
}

func check(value any, tag, message string) string {
	if err := validate.Var(value, tag); err != nil {
		return message
	}
	return ""
}

// Required rejects empty or whitespace-only values.
func Required(message string) Rule {
	return func(value string) string {
		return check(strings.TrimSpace(value), "required", message)
	}
}

// MinLength rejects values shorter than n characters.
func MinLength(n int, message string) Rule {
	return tagRule(fmt.Sprintf("min=%d", n), message)
}

// MaxLength rejects values longer than n characters.
func MaxLength(n int, message string) Rule {
	return tagRule(fmt.Sprintf("max=%d", n), message)
}

// Email accepts a bare address with a dotted domain ("a@b.co").
func Email(message string) Rule {
	return tagRule("required,email", message)
}

// URL accepts absolute http(s) URLs with a host.
func URL(message string) Rule {
	return tagRule("required,http_url", message)
}

// PositiveInt accepts base-10 integers >= 1. Used for select boxes that
// submit record IDs.
func PositiveInt(message string) Rule {
	return func(value string) string {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return message
		}
		return check(n, "gte=1", message)
	}
}

// Optional treats an empty value as valid and otherwise defers to rule.
func Optional(rule Rule) Rule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return rule(value)
	}
}

// All applies rules in order and reports the first failure only, so a field
// never carries more than one message.
func All(rules ...Rule) Rule {
	return func(value string) string {
		for _, rule := range rules {
			if msg := rule(value); msg != "" {
				return msg
			}
		}
		return ""
	}
}
