package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexID decodes identifier fields that upstream APIs send either as a JSON
// string or as a number, without failing the whole payload.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*f = ""
		return nil
	}

	if trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(value))
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("cannot decode %s into FlexID", string(trimmed))
	}
	*f = FlexID(number.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}
