package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"pagecrawl/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRecordHash returns hex SHA256 of source|value1|value2|...
// with values in the record's field order.
func (g *Generator) GenerateRecordHash(source string, rec *scraper.Record) string {
	parts := make([]string, 0, len(rec.Names())+1)
	parts = append(parts, source)
	for _, name := range rec.Names() {
		parts = append(parts, rec.Get(name))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return fmt.Sprintf("%x", hash)
}
