package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nrtkbb/adbfm/bridge"
	"github.com/nrtkbb/adbfm/models"
)

const filesURI = "content://media/external/file"

var mediaURIs = map[models.Category]string{
	models.CategoryImage:    "content://media/external/images/media",
	models.CategoryVideo:    "content://media/external/video/media",
	models.CategoryAudio:    "content://media/external/audio/media",
	models.CategoryDocument: filesURI,
}

// Extension filters for document listings. The pattern text is handed to the
// device's grep, so it must only ever come from this table.
var documentPatterns = map[models.DocumentKind]string{
	models.KindDocument: `\.(pdf|doc|docx|xls|xlsx|ppt|pptx|txt|odt|ods|odp)`,
	models.KindAPK:      `\.(apk)`,
	models.KindZip:      `\.(zip|rar|7z|tar|gz)`,
}

var documentMatchers = func() map[models.DocumentKind]*regexp.Regexp {
	m := make(map[models.DocumentKind]*regexp.Regexp, len(documentPatterns))
	for kind, pattern := range documentPatterns {
		m[kind] = regexp.MustCompile(`(?i)` + pattern + `$`)
	}
	return m
}()

// UnsupportedCategoryError reports a category or document kind outside the
// fixed set. It is returned before any command runs.
type UnsupportedCategoryError struct {
	Value string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported category %q", e.Value)
}

// ParseCategory maps a request value to a media category.
func ParseCategory(s string) (models.Category, error) {
	c := models.Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := mediaURIs[c]; !ok {
		return "", &UnsupportedCategoryError{Value: s}
	}
	return c, nil
}

// ParseDocumentKind maps a request value to a document kind; empty means
// the office-document set.
func ParseDocumentKind(s string) (models.DocumentKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.KindDocument, nil
	}
	k := models.DocumentKind(s)
	if _, ok := documentPatterns[k]; !ok {
		return "", &UnsupportedCategoryError{Value: s}
	}
	return k, nil
}

func contentQueryArgs(uri string, category models.Category) []string {
	return []string{"shell", "content", "query", "--uri", uri, "--projection", bridge.Projection(category)}
}

func documentQueryArgs(kind models.DocumentKind) []string {
	args := contentQueryArgs(filesURI, models.CategoryDocument)
	return append(args, "|", "grep", "-iE", bridge.ShellQuote(documentPatterns[kind]))
}
