// Package config holds global diskmapper defaults.
package config

// Name of the map engine, used in the REPL prompt.
const DBName = "diskmapper"

// Prompt printed by REPL.
const Prompt = DBName + "> "

// Name of the base folder diskmapper creates its two backing files in
// when none is given on the command line.
const DataDir = "data"

// Return prompt if requested, else "".
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
