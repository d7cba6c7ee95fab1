package ai

import (
	"strings"
)

// personaFiles maps character display names to the persona file the
// inference service loads server-side. Adding a character only requires a
// new entry here; unknown names fall through to SlugHandle.
var personaFiles = map[string]string{
	"Hoshino Ai": "hoshino ai_character.txt",
	"Shinobu":    "shinobu_character.txt",
}

// PersonaHandle resolves a character display name to its persona file
// handle. Names absent from the table are slugified deterministically.
func PersonaHandle(name string) string {
	if handle, ok := personaFiles[name]; ok {
		return handle
	}
	return SlugHandle(name)
}

// SlugHandle is the fallback rule: lowercase, spaces to underscores, plus
// the persona file suffix.
func SlugHandle(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + "_character.txt"
}
