package documents

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// objectKey places a file under its application so a prefix listing
// returns every file of one application.
func objectKey(applicationID, documentID uuid.UUID, fileName string) string {
	return fmt.Sprintf("applications/%s/documents/%s/%s", applicationID, documentID, sanitizeFileName(fileName))
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '/', r == '"':
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
