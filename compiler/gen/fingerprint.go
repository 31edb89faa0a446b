package gen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tuanknguyen/tablegen/schema"
)

// Fingerprint returns a stable hex digest of the schema model. The schema
// is canonically encoded (slices only, declaration order) and hashed, so
// two runs over the same schema always agree. The digest is written into
// the generation manifest so review tooling can detect when generated code
// drifted from its schema.
func Fingerprint(s *schema.Schema) (string, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode schema fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Manifest is the run summary written alongside generated files.
type Manifest struct {
	Language    string   `yaml:"language"`
	Fingerprint string   `yaml:"fingerprint"`
	Files       []string `yaml:"files"`
}
