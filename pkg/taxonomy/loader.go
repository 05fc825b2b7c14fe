package taxonomy

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// Master CSV column headers. All three are required, in any order.
const (
	ColumnLarge  = "industryLarge"
	ColumnMiddle = "industryMiddle"
	ColumnSmall  = "industrySmall"
)

// LoadFile reads the taxonomy master from a CSV file at path.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()
	idx, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

// Load reads the taxonomy master from CSV. The header row must contain
// the industryLarge, industryMiddle, and industrySmall columns; rows with
// any of the three empty are skipped.
func Load(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", "", "empty taxonomy master", nil)
	}
	if err != nil {
		return nil, errors.WrapParse("csv", "", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	large, okL := cols[ColumnLarge]
	middle, okM := cols[ColumnMiddle]
	small, okS := cols[ColumnSmall]
	if !okL || !okM || !okS {
		return nil, errors.NewParseError("csv", "",
			fmt.Sprintf("missing required columns %s, %s, %s", ColumnLarge, ColumnMiddle, ColumnSmall), nil)
	}

	var rows [][3]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", "", err)
		}
		cell := func(i int) string {
			if i < len(rec) {
				return rec[i]
			}
			return ""
		}
		rows = append(rows, [3]string{cell(large), cell(middle), cell(small)})
	}
	return New(rows), nil
}
