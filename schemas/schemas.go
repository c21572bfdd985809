// Package schemas embeds the JSON Schemas for documents exchanged with the matcher.
package schemas

import "embed"

// Schema file names
const (
	MatchProfile = "match_profile.schema.json"
	IdfSnapshot  = "idf_snapshot.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the content of an embedded schema.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}

// Names lists every embedded schema.
func Names() []string {
	return []string{MatchProfile, IdfSnapshot}
}
