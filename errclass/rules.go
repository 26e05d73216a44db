package errclass

import (
	"regexp"
	"strings"
)

// words compiles a whole-word, case-insensitive alternation of phrases.
func words(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

type categoryRule struct {
	category Category
	terminal bool
	pattern  *regexp.Regexp
}

// categoryRules are tested in order; the first match wins.
var categoryRules = []categoryRule{
	{
		category: CategoryGeneral,
		terminal: true,
		pattern:  words("not implemented", "not yet implemented", "unimplemented", "not supported yet", "coming soon"),
	},
	{
		category: CategoryOllama,
		pattern:  words("ollama"),
	},
	{
		category: CategoryAPI,
		pattern:  words("port", "ports", "proxy", "auth proxy", "api key", "api server", "address already in use", "bind"),
	},
	{
		category: CategoryModel,
		pattern:  words("model", "models", "download", "downloading", "pull", "gguf", "manifest"),
	},
	{
		category: CategoryDatabase,
		pattern:  words("database", "sqlite", "sql", "db", "migration", "storage"),
	},
	{
		category: CategoryNetwork,
		pattern:  words("network", "connection", "connect", "timeout", "timed out", "deadline exceeded", "unreachable", "dns", "refused", "offline"),
	},
	{
		category: CategoryPermission,
		pattern:  words("permission", "permissions", "denied", "unauthorized", "forbidden", "not allowed"),
	},
}

// retryablePattern marks transient failures independent of category.
var retryablePattern = words(
	"network",
	"timeout",
	"timed out",
	"deadline exceeded",
	"temporary",
	"temporarily",
	"connection",
	"unavailable",
	"try again",
	"refused",
	"reset",
	"econnrefused",
	"econnreset",
)

// categorize returns the first matching category and whether the match is
// terminal (never retryable).
func categorize(message string) (Category, bool) {
	lower := strings.ToLower(message)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(lower) {
			return rule.category, rule.terminal
		}
	}
	return CategoryGeneral, false
}

func isRetryableMessage(message string) bool {
	return retryablePattern.MatchString(strings.ToLower(message))
}

type messageRule struct {
	pattern  *regexp.Regexp
	template string
}

func rule(pattern, template string) messageRule {
	return messageRule{pattern: regexp.MustCompile(pattern), template: template}
}

// messageRules select a user-facing message within a category. Templates may
// reference named groups of their pattern.
var messageRules = map[Category][]messageRule{
	CategoryGeneral: {
		rule(`not (?:yet )?implemented|unimplemented|not supported yet|coming soon`,
			"This feature is not available yet."),
	},
	CategoryOllama: {
		rule(`not running|connection refused|could not connect|failed to connect|unreachable`,
			"Ollama is not running. Start Ollama and try again."),
		rule(`not installed|not found|no such file`,
			"Ollama is not installed or could not be found on this system."),
		rule(`version`,
			"The installed Ollama version is not supported. Update Ollama and try again."),
	},
	CategoryAPI: {
		rule(`\bport\s+(?P<port>\d+)\b.*\bin use\b`,
			"Port ${port} is already in use. Choose a different port or stop the application using it."),
		rule(`\bport\b.*\bin use\b|address already in use`,
			"The selected port is already in use. Choose a different port or stop the application using it."),
		rule(`\b(?:invalid|out of range)\b.*\bport\b|\bport\b.*\b(?:invalid|out of range)\b`,
			"The port number is invalid. Use a port between 1024 and 65535."),
		rule(`\bproxy\b.*\b(?:failed|error|could not|unable)\b|\b(?:failed|error|could not|unable)\b.*\bproxy\b`,
			"The authentication proxy could not be started. Check the API settings and try again."),
		rule(`\bapi key\b`,
			"The API key is missing or invalid."),
		rule(`not found`,
			"The requested API could not be found. It may have been deleted."),
	},
	CategoryModel: {
		rule(`no space|disk full|not enough space`,
			"There is not enough disk space to download the model."),
		rule(`\bmodel\b.*not found|not found.*\bmodel\b`,
			"The model was not found. Download it before using it."),
		rule(`(?:download|pull)\w*\b.*\b(?:failed|error|interrupted)|(?:failed|error)\b.*\b(?:download|pull)`,
			"The model download failed. Check your connection and try again."),
		rule(`cancel`,
			"The model download was cancelled."),
	},
	CategoryDatabase: {
		rule(`locked|busy`,
			"The database is busy. Wait a moment and try again."),
		rule(`corrupt|malformed`,
			"The database appears to be corrupted."),
		rule(`unique|constraint|already exists`,
			"A record with the same name already exists."),
		rule(`no such table|migration`,
			"The database schema is out of date. Restart the application to migrate it."),
	},
	CategoryNetwork: {
		rule(`timed out|timeout|deadline exceeded`,
			"The request timed out. Check your connection and try again."),
		rule(`refused`,
			"The connection was refused. Make sure the service is running."),
		rule(`\bdns\b|no such host|resolve`,
			"The host name could not be resolved. Check the address and your connection."),
	},
	CategoryPermission: {
		rule(`unauthorized|401`,
			"You are not signed in or your session has expired."),
		rule(`forbidden|403|not allowed`,
			"You do not have permission to perform this action."),
		rule(`denied`,
			"Permission denied. Check that the application can access the required files."),
	},
	CategoryValidation: {
		rule(`required|missing`,
			"A required field is missing."),
		rule(`too long|too short|length`,
			"One of the fields has an invalid length."),
	},
}

// genericMessages are used when no message rule in the category matches.
// GENERAL has none, so the raw message is shown instead.
var genericMessages = map[Category]string{
	CategoryOllama:     "Ollama reported an error.",
	CategoryAPI:        "The API service reported an error.",
	CategoryModel:      "The model operation failed.",
	CategoryDatabase:   "A database error occurred.",
	CategoryNetwork:    "A network error occurred. Check your connection and try again.",
	CategoryPermission: "You do not have permission to perform this action.",
	CategoryValidation: "The provided input is invalid.",
}

// localize picks the user-facing message for raw within category.
func localize(category Category, raw string) string {
	lower := strings.ToLower(raw)
	for _, r := range messageRules[category] {
		if m := r.pattern.FindStringSubmatchIndex(lower); m != nil {
			return string(r.pattern.ExpandString(nil, r.template, lower, m))
		}
	}
	if generic, ok := genericMessages[category]; ok {
		return generic
	}
	return raw
}
