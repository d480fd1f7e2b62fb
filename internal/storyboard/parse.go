package storyboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storyboard/internal/shot"
)

var (
	errEmptyPayload = errors.New("empty response")
	errNoShots      = errors.New("no shots found in response")
)

// wrapperKeys are the object keys JSON-mode models tend to wrap the array in.
var wrapperKeys = []string{"shots", "shotList", "shot_list", "items", "results"}

// parseShots accepts a bare JSON array of shots or an object wrapping one.
// Order is kept as returned.
func parseShots(content string) ([]shot.Shot, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errEmptyPayload
	}

	var direct []shot.Shot
	if err := json.Unmarshal([]byte(content), &direct); err == nil {
		if len(direct) == 0 {
			return nil, errNoShots
		}
		return direct, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	for _, key := range wrapperKeys {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		var shots []shot.Shot
		if err := json.Unmarshal(raw, &shots); err != nil {
			return nil, fmt.Errorf("parse %q: %w", key, err)
		}
		if len(shots) > 0 {
			return shots, nil
		}
	}

	for _, raw := range wrapped {
		var shots []shot.Shot
		if err := json.Unmarshal(raw, &shots); err == nil && len(shots) > 0 {
			return shots, nil
		}
	}

	return nil, errNoShots
}
