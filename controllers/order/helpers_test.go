package orderControllers

import (
	"strconv"
	"strings"
)

func idList(ids ...uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}
