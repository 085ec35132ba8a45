// internal/service/template_service.go
package service

import (
	"regexp"

	"github.com/unclebandit/reviewboost-backend/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Interpolate replaces each {name} with vars[name]. Placeholders without a
// value are left as written. Substituted values are not rescanned.
func Interpolate(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// MessageVars builds the variables available to business templates.
func MessageVars(b *model.Business, c *model.Customer, link string) map[string]string {
	return map[string]string{
		"name":     c.Name,
		"business": b.Name,
		"link":     link,
	}
}
