package privacy

import (
	"net/url"
	"regexp"
)

const redactedPlaceholder = "[REDACTED]"

// secretParams are query parameters whose values never reach logs or errors.
var secretParams = []string{"access_token", "token"}

var secretParamPattern = regexp.MustCompile(`\b((?:access_token|token)=)[^&\s"']+`)

// URL returns raw with the values of secret query parameters replaced by
// [REDACTED]. Unparseable input is redacted as text.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return Text(raw)
	}
	v := u.Query()
	changed := false
	for _, p := range secretParams {
		if v.Get(p) != "" {
			v.Set(p, redactedPlaceholder)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = v.Encode()
	return u.String()
}

// Text redacts secret query parameters wherever they appear in s, such as
// an error message that embeds a request URL.
func Text(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}"+redactedPlaceholder)
}
