package conversation

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"clinicbot/models"

	"go.uber.org/zap"
)

const maxNameLength = 40

var namePattern = regexp.MustCompile(`^[\p{Latin}\p{Arabic}' \-]{2,40}$`)

// Validators holds the predicates consulted before a flow step is accepted.
type Validators struct {
	assistant Assistant
	catalog   *Catalog
	timeout   time.Duration
	logger    *zap.Logger
}

func NewValidators(assistant Assistant, catalog *Catalog, timeout time.Duration, logger *zap.Logger) *Validators {
	return &Validators{assistant: assistant, catalog: catalog, timeout: timeout, logger: logger}
}

// ValidateName returns the normalized name and whether it was accepted.
// The language model has the final word, but an unreachable model never blocks the user.
func (v *Validators) ValidateName(ctx context.Context, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !passesNameChecks(trimmed) {
		return "", false
	}
	name := normalizeName(trimmed)
	if name == "" {
		return "", false
	}

	callCtx, cancel := boundedContext(ctx, v.timeout)
	defer cancel()
	verdict, err := v.assistant.IsPlausibleName(callCtx, name)
	if err != nil {
		v.logger.Warn("name check unavailable, accepting", zap.String("name", name), zap.Error(err))
		return name, true
	}

	switch verdict {
	case models.NamePlausible:
		return name, true
	case models.NameImplausible:
		return "", false
	default:
		if looksLikeName(name) {
			return name, true
		}
		return "", false
	}
}

// passesNameChecks applies the cheap local rules: some letter, no digit, bounded length.
func passesNameChecks(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxNameLength {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) && (unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Arabic, r)) {
			hasLetter = true
		}
	}
	return hasLetter
}

// normalizeName drops punctuation and symbols other than apostrophe and hyphen
// and collapses whitespace.
func normalizeName(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == '\'' || r == '-' {
			return r
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}

func looksLikeName(name string) bool {
	return namePattern.MatchString(name) && len(strings.Fields(name)) <= 3
}

// MatchService resolves the turn to a catalog service, first by selection id
// and then by case-insensitive containment in either direction.
func (v *Validators) MatchService(turn models.Turn) (models.Service, bool) {
	if strings.HasPrefix(turn.SelectionID, servicePrefix) {
		id := strings.TrimPrefix(turn.SelectionID, servicePrefix)
		for _, s := range v.catalog.Services {
			if s.ID == id {
				return s, true
			}
		}
	}

	input := fold(strings.TrimSpace(turn.Text))
	if input == "" {
		return models.Service{}, false
	}
	for _, s := range v.catalog.Services {
		for _, candidate := range append([]string{s.Title}, s.Aliases...) {
			c := fold(candidate)
			if c == "" {
				continue
			}
			if strings.Contains(input, c) || strings.Contains(c, input) {
				return s, true
			}
		}
	}
	return models.Service{}, false
}
