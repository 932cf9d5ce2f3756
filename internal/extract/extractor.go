package extract

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/loan-intake/constants"
)

// Extractor applies the pattern table to OCR text. It holds no state besides
// its logger, so repeated calls on the same input return the same set.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract returns the fields of category found in rawText. A field whose value
// fails coercion is logged and left out; the rest are still extracted.
func (e *Extractor) Extract(rawText string, category constants.DocumentType) FieldSet {
	var out FieldSet
	for _, p := range patternTable[category] {
		kind := KindOf(p.field)
		if kind == KindFlag {
			if p.flagged(rawText) {
				_ = out.Set(p.field, FlagValue())
			}
			continue
		}
		m := p.re.FindStringSubmatch(rawText)
		if m == nil {
			continue
		}
		raw := ""
		if len(m) > 1 {
			raw = strings.TrimSpace(m[1])
		}
		v, err := coerce(kind, raw)
		if err != nil {
			e.logger.Warn("extract.field.dropped", "field", string(p.field), "kind", kind.String(), "raw", raw, "error", err)
			continue
		}
		if err := out.Set(p.field, v); err != nil {
			e.logger.Warn("extract.field.rejected", "field", string(p.field), "error", err)
		}
	}
	e.logger.Debug("extract.done", "category", string(category), "fields", out.Len())
	return out
}
