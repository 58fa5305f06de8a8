package db

import "strings"

// LikeEscape is the ESCAPE character used with ContainsPattern.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a lowercase substring pattern for
// `LOWER(col) LIKE $n ESCAPE '\'`. Wildcards in s match literally.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
