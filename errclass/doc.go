// Package errclass normalizes command failures into a closed taxonomy.
//
// Classify accepts whatever a transport returned as a failure (an error, a
// string, a decoded JSON object, a tagged backend error) and always produces
// an Info: a user-facing message, a Category, a retryable flag and a
// remediation suggestion. The raw failure is kept in Info.Original and
// Info.TechnicalDetails for logging only.
//
// # Categories
//
// Categories are assigned by testing the lower-cased message against ordered
// keyword groups. The order is policy: "not implemented" phrases win over
// everything, engine-specific keywords (Ollama) win over API keywords, and
// so on down to NETWORK and PERMISSION. Anything unmatched is GENERAL.
//
// Retryability is decided separately from the category by a list of
// connectivity keywords, so a DATABASE error mentioning a timeout is still
// retryable.
package errclass
