package layout

import (
	"fmt"
	"strings"
)

// ParseChatFilter splits a comma separated --chats value. An empty value means no filter.
func ParseChatFilter(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if part == "" {
			return nil, fmt.Errorf("invalid chat filter %q: empty name", raw)
		}
		names = append(names, part)
	}
	return names, nil
}
