package checksum

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// SlotSetHash генерирует SHA256 хеш набора слотов
// Формула: SHA256(sorted(labels) joined by "|"), порядок на странице не важен
func (g *Generator) SlotSetHash(labels []string) string {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return fmt.Sprintf("%x", hash)
}
