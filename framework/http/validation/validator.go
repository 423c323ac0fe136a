package validation

import (
	"errors"
	"fmt"
	"maps"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	gohttp "github.com/km-arc/gomvc/framework/http"
)

var ErrUnknownRule = errors.New("validation: unknown rule")

// Rules maps a field to its pipe-separated rule string.
type Rules map[string]string

// Errors maps a field to its messages. It encodes as the body of a 422.
type Errors map[string][]string

func (e Errors) Any() bool { return len(e) > 0 }

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Field is what a rule sees.
type Field struct {
	Name  string
	Value string
	Param string
	Data  map[string]string
}

// RuleFunc returns an error message, or "" when the value passes.
type RuleFunc func(f Field) string

// Validator holds a rule table.
type Validator struct {
	mu    sync.RWMutex
	rules map[string]RuleFunc
}

// New returns a validator with the built-in rules.
func New() *Validator {
	v := &Validator{rules: make(map[string]RuleFunc, len(builtin))}
	maps.Copy(v.rules, builtin)
	return v
}

// Extend adds or replaces a rule.
func (v *Validator) Extend(name string, fn RuleFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[name] = fn
}

// Validate checks data against rules. Fields are checked in name order.
func (v *Validator) Validate(data map[string]string, rules Rules) (Errors, error) {
	errs := Errors{}
	for _, field := range slices.Sorted(maps.Keys(rules)) {
		value, present := data[field]
	rules:
		for _, rule := range strings.Split(rules[field], "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(rule), ":")
			switch name {
			case "":
				continue
			case "sometimes":
				if !present {
					break rules
				}
				continue
			case "nullable":
				if strings.TrimSpace(value) == "" {
					break rules
				}
				continue
			}

			v.mu.RLock()
			fn, ok := v.rules[name]
			v.mu.RUnlock()
			if !ok {
				return nil, fmt.Errorf("%w %q on field %s", ErrUnknownRule, name, field)
			}
			if msg := fn(Field{Name: field, Value: value, Param: param, Data: data}); msg != "" {
				errs[field] = append(errs[field], msg)
				break
			}
		}
	}
	return errs, nil
}

// Request validates the query and form input of req.
func (v *Validator) Request(req *gohttp.Request, rules Rules) (Errors, error) {
	return v.Validate(req.All(), rules)
}

var std = New()

// Validate uses the package validator.
func Validate(data map[string]string, rules Rules) (Errors, error) {
	return std.Validate(data, rules)
}

// Request uses the package validator.
func Request(req *gohttp.Request, rules Rules) (Errors, error) {
	return std.Request(req, rules)
}

// Extend adds a rule to the package validator.
func Extend(name string, fn RuleFunc) { std.Extend(name, fn) }

var (
	urlPattern       = regexp.MustCompile(`^https?://\S+$`)
	alphaPattern     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumPattern  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDashPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func check(ok bool, format string, args ...any) string {
	if ok {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

func length(f Field) int { return utf8.RuneCountInString(f.Value) }

func intParam(f Field) int {
	n, _ := strconv.Atoi(strings.TrimSpace(f.Param))
	return n
}

func compare(op string, pass func(a, b float64) bool) RuleFunc {
	return func(f Field) string {
		a, err := strconv.ParseFloat(f.Value, 64)
		b, _ := strconv.ParseFloat(f.Param, 64)
		return check(err == nil && pass(a, b), "The %s must be %s %s.", f.Name, op, f.Param)
	}
}

func listed(f Field) bool {
	for _, item := range strings.Split(f.Param, ",") {
		if strings.TrimSpace(item) == f.Value {
			return true
		}
	}
	return false
}

var builtin = map[string]RuleFunc{
	"required": func(f Field) string {
		return check(strings.TrimSpace(f.Value) != "", "The %s field is required.", f.Name)
	},
	"string": func(Field) string { return "" },
	"numeric": func(f Field) string {
		_, err := strconv.ParseFloat(f.Value, 64)
		return check(err == nil, "The %s must be a number.", f.Name)
	},
	"integer": func(f Field) string {
		_, err := strconv.Atoi(f.Value)
		return check(err == nil, "The %s must be an integer.", f.Name)
	},
	"boolean": func(f Field) string {
		switch strings.ToLower(f.Value) {
		case "true", "false", "1", "0", "yes", "no", "on", "off":
			return ""
		}
		return fmt.Sprintf("The %s field must be true or false.", f.Name)
	},
	"email": func(f Field) string {
		addr, err := mail.ParseAddress(f.Value)
		return check(err == nil && addr.Address == f.Value, "The %s must be a valid email address.", f.Name)
	},
	"url": func(f Field) string {
		return check(urlPattern.MatchString(f.Value), "The %s must be a valid URL.", f.Name)
	},
	"min": func(f Field) string {
		return check(length(f) >= intParam(f), "The %s must be at least %d characters.", f.Name, intParam(f))
	},
	"max": func(f Field) string {
		return check(length(f) <= intParam(f), "The %s may not be greater than %d characters.", f.Name, intParam(f))
	},
	"size": func(f Field) string {
		return check(length(f) == intParam(f), "The %s must be %d characters.", f.Name, intParam(f))
	},
	"between": func(f Field) string {
		lo, hi, _ := strings.Cut(f.Param, ",")
		from, _ := strconv.Atoi(strings.TrimSpace(lo))
		to, _ := strconv.Atoi(strings.TrimSpace(hi))
		n := length(f)
		return check(n >= from && n <= to, "The %s must be between %d and %d characters.", f.Name, from, to)
	},
	"in":     func(f Field) string { return check(listed(f), "The selected %s is invalid.", f.Name) },
	"not_in": func(f Field) string { return check(!listed(f), "The selected %s is invalid.", f.Name) },
	"confirmed": func(f Field) string {
		return check(f.Data[f.Name+"_confirmation"] == f.Value, "The %s confirmation does not match.", f.Name)
	},
	"same": func(f Field) string {
		return check(f.Data[f.Param] == f.Value, "The %s and %s must match.", f.Name, f.Param)
	},
	"different": func(f Field) string {
		return check(f.Data[f.Param] != f.Value, "The %s and %s must be different.", f.Name, f.Param)
	},
	"alpha": func(f Field) string {
		return check(alphaPattern.MatchString(f.Value), "The %s may only contain letters.", f.Name)
	},
	"alpha_num": func(f Field) string {
		return check(alphaNumPattern.MatchString(f.Value), "The %s may only contain letters and numbers.", f.Name)
	},
	"alpha_dash": func(f Field) string {
		return check(alphaDashPattern.MatchString(f.Value), "The %s may only contain letters, numbers, dashes and underscores.", f.Name)
	},
	"regex": func(f Field) string {
		re, err := regexp.Compile(f.Param)
		return check(err == nil && re.MatchString(f.Value), "The %s format is invalid.", f.Name)
	},
	"gt":  compare("greater than", func(a, b float64) bool { return a > b }),
	"gte": compare("greater than or equal to", func(a, b float64) bool { return a >= b }),
	"lt":  compare("less than", func(a, b float64) bool { return a < b }),
	"lte": compare("less than or equal to", func(a, b float64) bool { return a <= b }),
}
