package bridge

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/nrtkbb/adbfm/metrics"
	"github.com/nrtkbb/adbfm/models"
	"go.uber.org/zap"
)

// nullValue is how `content query` prints a missing column.
const nullValue = "NULL"

// rowLayout is the ordered column set a category's rows carry.
type rowLayout struct {
	fields  []string
	pattern *regexp.Regexp
	index   map[string]int
}

func newRowLayout(fields ...string) *rowLayout {
	parts := make([]string, len(fields))
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		parts[i] = regexp.QuoteMeta(f) + `=([^,]+)`
		index[f] = i + 1
	}
	return &rowLayout{
		fields:  fields,
		pattern: regexp.MustCompile(`^Row: \d+ ` + strings.Join(parts, `,\s+`)),
		index:   index,
	}
}

func (l *rowLayout) value(m []string, field string) (string, bool) {
	i, ok := l.index[field]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(m[i]), true
}

// Projection returns the --projection argument for this layout.
func (l *rowLayout) Projection() string {
	return strings.Join(l.fields, ":")
}

var (
	visualLayout = newRowLayout("_id", "_data", "mime_type", "_size", "_display_name", "width", "height", "date_added")
	plainLayout  = newRowLayout("_id", "_data", "mime_type", "_size", "_display_name", "date_added")
)

// Projection returns the content-query projection used for category.
func Projection(category models.Category) string {
	return layoutFor(category).Projection()
}

func layoutFor(category models.Category) *rowLayout {
	if category.HasDimensions() {
		return visualLayout
	}
	return plainLayout
}

// ParseRows turns `content query` output into entries for category, in the
// order the rows were printed. Rows that do not match the category layout or
// carry non-numeric ids, sizes or dimensions are logged and dropped.
func ParseRows(raw string, category models.Category, logger *zap.Logger) []models.MediaEntry {
	if logger == nil {
		logger = zap.NewNop()
	}
	layout := layoutFor(category)

	var entries []models.MediaEntry
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := layout.pattern.FindStringSubmatch(line)
		if m == nil {
			metrics.RecordParseSkip("rows")
			logger.Warn("skipping unmatched row", zap.String("category", string(category)), zap.String("line", line))
			continue
		}
		entry, err := layout.entry(m)
		if err != nil {
			metrics.RecordParseSkip("rows")
			logger.Warn("skipping malformed row", zap.String("category", string(category)), zap.String("line", line), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	logger.Info("parsed content rows", zap.String("category", string(category)), zap.Int("count", len(entries)))
	return entries
}

func (l *rowLayout) entry(m []string) (models.MediaEntry, error) {
	var e models.MediaEntry
	var err error

	idText, _ := l.value(m, "_id")
	if e.ID, err = strconv.ParseInt(idText, 10, 64); err != nil {
		return e, fmt.Errorf("_id %q: %w", idText, err)
	}
	sizeText, _ := l.value(m, "_size")
	if e.SizeBytes, err = strconv.ParseInt(sizeText, 10, 64); err != nil {
		return e, fmt.Errorf("_size %q: %w", sizeText, err)
	}

	e.Path, _ = l.value(m, "_data")
	// Kept verbatim so ParentDir stays a prefix of Path.
	if i := strings.LastIndex(e.Path, "/"); i >= 0 {
		e.ParentDir = e.Path[:i+1]
	} else {
		e.ParentDir = "/"
	}

	e.DisplayName, _ = l.value(m, "_display_name")
	if e.DisplayName == nullValue || e.DisplayName == "" {
		e.DisplayName = path.Base(e.Path)
	}

	e.MimeType, _ = l.value(m, "mime_type")
	if e.MimeType == nullValue || e.MimeType == "" {
		e.MimeType = MimeUnknown
	}

	if dateText, ok := l.value(m, "date_added"); ok {
		if v, perr := strconv.ParseInt(dateText, 10, 64); perr == nil {
			e.DateAdded = v
		}
	}

	widthText, hasWidth := l.value(m, "width")
	heightText, hasHeight := l.value(m, "height")
	if hasWidth && hasHeight && widthText != nullValue && heightText != nullValue {
		w, werr := strconv.Atoi(widthText)
		if werr != nil {
			return e, fmt.Errorf("width %q: %w", widthText, werr)
		}
		h, herr := strconv.Atoi(heightText)
		if herr != nil {
			return e, fmt.Errorf("height %q: %w", heightText, herr)
		}
		e.Dimensions = &models.Dimensions{Width: w, Height: h}
	}
	return e, nil
}
