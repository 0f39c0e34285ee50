package export

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ValidateSchema checks that the Parquet schema contains all required columns.
func ValidateSchema(schema *parquet.Schema, required []string) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range required {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Export kinds reported by DetectKind.
const (
	KindProgress = "progress"
	KindCosts    = "costs"
)

// DetectKind opens an export and names it by the columns it carries.
func DetectKind(path string) (string, error) {
	f, pf, err := openFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	schema := pf.Schema()
	if ValidateSchema(schema, ProgressColumns()) == nil {
		return KindProgress, nil
	}
	if ValidateSchema(schema, CostColumns()) == nil {
		return KindCosts, nil
	}
	return "", fmt.Errorf("%s is neither a progress nor a cost export", path)
}
