package observability

import (
	"regexp"
	"strings"
)

var (
	rePassword  = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reBearer    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reDSNPass   = regexp.MustCompile(`(://)([^:/\s]+):([^@\s]+)(@)`)
	reAPIKey    = regexp.MustCompile(`(?i)(apikey=|api_key=|key=)([^\s;&]+)`)
	reOpenAIKey = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`)
	reDapiToken = regexp.MustCompile(`\bdapi[0-9a-f]{16,}`)
	reGoogleKey = regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{20,}`)
)

// Mask replaces credentials in s with asterisks. DSN user and password are both masked.
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reBearer.ReplaceAllString(out, "$1***")
	out = reDSNPass.ReplaceAllString(out, "$1*:*$4")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	out = reOpenAIKey.ReplaceAllString(out, "sk-***")
	out = reDapiToken.ReplaceAllString(out, "dapi***")
	out = reGoogleKey.ReplaceAllString(out, "AIza***")
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "DATABRICKS_ACCESS_TOKEN"} {
		out = replaceEnvValue(out, k)
	}
	return out
}

func replaceEnvValue(s, key string) string {
	prefix := key + "="
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return s
	}
	start := idx + len(prefix)
	end := start
	for end < len(s) && s[end] != ' ' && s[end] != '\n' && s[end] != ';' {
		end++
	}
	return s[:start] + "***" + s[end:]
}
