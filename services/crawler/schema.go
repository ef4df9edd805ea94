package crawler

import (
	// Go Internal Packages
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/parquet-go/parquet-go"
	"github.com/tidwall/gjson"
)

// schema merges column types across objects, keeping first-seen column order.
type schema struct {
	order []string
	types map[string]string
}

func newSchema() *schema {
	return &schema{types: make(map[string]string)}
}

func (s *schema) add(name, typ string) {
	prev, ok := s.types[name]
	if !ok {
		s.order = append(s.order, name)
		s.types[name] = typ
		return
	}
	switch {
	case prev == typ, typ == "":
	case prev == "":
		s.types[name] = typ
	default:
		s.types[name] = "string"
	}
}

func (s *schema) columns() []models.Column {
	cols := make([]models.Column, 0, len(s.order))
	for _, name := range s.order {
		typ := s.types[name]
		if typ == "" {
			typ = "string"
		}
		cols = append(cols, models.Column{Name: name, Type: typ})
	}
	return cols
}

func inferJSONLines(s *schema, body []byte, gzipped bool) error {
	var r io.Reader = bytes.NewReader(body)
	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		gjson.ParseBytes(line).ForEach(func(key, value gjson.Result) bool {
			s.add(key.String(), jsonType(value))
			return true
		})
	}
	return scanner.Err()
}

// jsonType maps a JSON value to a catalog type. Nulls have no type.
func jsonType(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "double"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.JSON:
		if v.IsArray() {
			elem := ""
			v.ForEach(func(_, item gjson.Result) bool {
				elem = jsonType(item)
				return elem == ""
			})
			if elem == "" {
				elem = "string"
			}
			return "array<" + elem + ">"
		}
		var fields []string
		v.ForEach(func(key, value gjson.Result) bool {
			typ := jsonType(value)
			if typ == "" {
				typ = "string"
			}
			fields = append(fields, key.String()+":"+typ)
			return true
		})
		return "struct<" + strings.Join(fields, ",") + ">"
	}
	return ""
}

func inferParquet(s *schema, body []byte) error {
	f, err := parquet.OpenFile(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}
	for _, field := range f.Schema().Fields() {
		s.add(field.Name(), parquetType(field))
	}
	return nil
}

func parquetType(field parquet.Field) string {
	if !field.Leaf() {
		parts := make([]string, 0, len(field.Fields()))
		for _, child := range field.Fields() {
			parts = append(parts, child.Name()+":"+parquetType(child))
		}
		return "struct<" + strings.Join(parts, ",") + ">"
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return "boolean"
	case parquet.Int32:
		return "int"
	case parquet.Int64:
		return "bigint"
	case parquet.Float:
		return "float"
	case parquet.Double:
		return "double"
	case parquet.Int96:
		return "timestamp"
	}
	return "string"
}
