package layout

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/harukiyade/road-companiesInfo-sub000/pkg/entity"
	"github.com/harukiyade/road-companiesInfo-sub000/pkg/errors"
)

// ReadFile detects the layout of the CSV at path and maps every row.
// Rows shorter than the header are mapped with what they have; rows the
// CSV reader cannot parse at all fail the load.
func ReadFile(path string) ([]*entity.IncomingRecord, *Mapper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WrapIO("read", path, err)
	}
	defer f.Close()
	records, mapper, err := Read(f)
	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			pe.File = path
		}
		return nil, nil, err
	}
	return records, mapper, nil
}

// Read detects the layout from the first row and maps the rest.
func Read(r io.Reader) ([]*entity.IncomingRecord, *Mapper, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.NewParseError("csv", "", "empty input", nil)
	}
	if err != nil {
		return nil, nil, errors.WrapParse("csv", "", err)
	}

	mapper, err := Detect(header)
	if err != nil {
		return nil, nil, err
	}

	var out []*entity.IncomingRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.WrapParse("csv", "", err)
		}
		out = append(out, mapper.MapRow(row))
	}
	return out, mapper, nil
}
