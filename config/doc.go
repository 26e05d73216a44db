// Package config loads cmdbridge settings from CMDBRIDGE_* environment
// variables.
//
// Values are parsed with caarlos0/env. The fallback token secret may be
// written as a reference instead of a literal:
//
//	CMDBRIDGE_TOKEN_SECRET=secretref:env:WEBVIEW_SECRET
//	CMDBRIDGE_TOKEN_SECRET=secretref:file:/run/secrets/cmdbridge
//	CMDBRIDGE_TOKEN_SECRET=${WEBVIEW_SECRET}
//
// ${VAR} expansion is strict: a referenced variable that is unset is an
// error rather than an empty string. $$ emits a literal $.
package config
