package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/blade/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode converts a single raw record into an Intent.
// Scalars are coerced where the target field expects another type
// ("phrases: ajoute un cube" becomes a one-element list).
// Keys the Intent does not know are kept in Extra.
func Decode(raw map[string]any) (domain.Intent, error) {
	var in domain.Intent
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return in, fmt.Errorf("failed to build intent decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return in, fmt.Errorf("failed to decode intent: %w", err)
	}
	if len(in.Extra) == 0 {
		in.Extra = nil
	}
	return in, nil
}

// DecodeAll converts a raw list into intents, keeping configuration order.
// Items that are not maps or fail to decode are skipped and logged.
func DecodeAll(items []any, logger *slog.Logger) []domain.Intent {
	out := make([]domain.Intent, 0, len(items))
	for i, item := range items {
		raw, ok := asStringMap(item)
		if !ok {
			logger.Warn("skipping non-map configuration item", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}
		in, err := Decode(raw)
		if err != nil {
			logger.Warn("skipping invalid intent", "index", i, "err", err)
			continue
		}
		out = append(out, in)
	}
	return out
}

// asStringMap accepts both map[string]any and the map[any]any some YAML
// decoders produce.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// Encode flattens an Intent into a raw record, the inverse of Decode.
// Keys held in Extra are written next to the known fields; known fields win.
func Encode(in domain.Intent) (map[string]any, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intent: %w", err)
	}
	out := make(map[string]any, len(in.Extra)+8)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode intent: %w", err)
	}
	for k, v := range in.Extra {
		if _, known := out[k]; !known {
			out[k] = v
		}
	}
	return out, nil
}
