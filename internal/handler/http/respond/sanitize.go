package respond

import "regexp"

type redaction struct {
	pattern *regexp.Regexp
	replace string
}

// Order matters: the Anthropic key shape also matches the generic sk- rule.
var redactions = []redaction{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},
	{regexp.MustCompile(`(?i)(apiKey|api_key)=[^&\s"]+`), "$1=****"},
	{regexp.MustCompile(`(hooks\.slack\.com/services)/[^\s"]+`), "$1/****"},
	{regexp.MustCompile(`(discord(?:app)?\.com/api/webhooks)/[^\s"]+`), "$1/****"},
	{regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`), "://$1:****@"},
}

// SanitizeError returns err's message with provider keys, webhook tokens and
// DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, r := range redactions {
		msg = r.pattern.ReplaceAllString(msg, r.replace)
	}
	return msg
}
