package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ConfigObject is an ora2pg-conf.json document. The order of its top level
// keys is part of the document and is kept exactly as written.
type ConfigObject struct {
	raw []byte
}

// ParseConfigObject parses a JSON document. The top level value must be an object.
func ParseConfigObject(data []byte) (ConfigObject, error) {
	if !gjson.ValidBytes(data) {
		return ConfigObject{}, fmt.Errorf("%w: invalid json", ErrParse)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return ConfigObject{}, fmt.Errorf("%w: top level value is not an object", ErrParse)
	}

	return ConfigObject{raw: pretty.Ugly(data)}, nil
}

// Keys returns the top level keys in document order.
func (c ConfigObject) Keys() []string {
	keys := []string{}
	gjson.ParseBytes(c.raw).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Values returns the document as generic maps, the shape templates consume.
// Numbers are json.Number holding the literal text from the document.
func (c ConfigObject) Values() map[string]any {
	values, ok := toValue(gjson.ParseBytes(c.Bytes())).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return values
}

func toValue(r gjson.Result) any {
	switch {
	case r.Type == gjson.Number:
		return json.Number(r.Raw)
	case r.IsArray():
		items := []any{}
		r.ForEach(func(_, v gjson.Result) bool {
			items = append(items, toValue(v))
			return true
		})
		return items
	case r.IsObject():
		fields := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			fields[k.String()] = toValue(v)
			return true
		})
		return fields
	default:
		return r.Value()
	}
}

// Get looks up a dotted path, e.g. "COMMON.ORACLE_HOME".
func (c ConfigObject) Get(path string) gjson.Result {
	return gjson.GetBytes(c.raw, path)
}

// SetRaw returns a copy of the document with path set to the raw JSON value.
// Existing keys keep their position, new keys are appended.
func (c ConfigObject) SetRaw(path string, value []byte) (ConfigObject, error) {
	if !gjson.ValidBytes(value) {
		return ConfigObject{}, fmt.Errorf("%w: invalid json value for %s", ErrParse, path)
	}

	src := c.Bytes()
	out, err := sjson.SetRawBytes(append([]byte(nil), src...), path, value)
	if err != nil {
		return ConfigObject{}, fmt.Errorf("%w: failed to set %s: %v", ErrParse, path, err)
	}

	return ParseConfigObject(out)
}

// Bytes returns the compact encoding.
func (c ConfigObject) Bytes() []byte {
	if len(c.raw) == 0 {
		return []byte("{}")
	}
	return c.raw
}

// Pretty returns an indented encoding for display.
func (c ConfigObject) Pretty() []byte {
	return pretty.Pretty(c.Bytes())
}
