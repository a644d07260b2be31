package oasvalidation

import (
	"github.com/asaskevich/govalidator"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// registerFormats installs string format checkers on a compiler. The
// govalidator implementations replace the built-ins for these names so
// format behavior is uniform across drafts. A non-string value passes;
// format only constrains strings.
func registerFormats(c *jsonschema.Compiler) {
	for name, check := range map[string]func(string) bool{
		"uuid":     govalidator.IsUUID,
		"email":    govalidator.IsEmail,
		"ipv4":     govalidator.IsIPv4,
		"ipv6":     govalidator.IsIPv6,
		"hostname": govalidator.IsDNSName,
		"url":      govalidator.IsURL,
	} {
		check := check
		c.Formats[name] = func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			return check(s)
		}
	}
}
