// internal/domain/fireUnit/service.go
package fireUnit

import (
	"sort"
	"strings"
)

// SortByCode は code 昇順（同一 code は name 昇順）で並べ替えたコピーを返します。
func SortByCode(units []FireUnit) []FireUnit {
	out := make([]FireUnit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DuplicateCodes はシード一覧内で重複している code を返します（比較は大小文字を区別しない）。
func DuplicateCodes(units []FireUnit) []string {
	seen := make(map[string]int, len(units))
	var dups []string
	for _, u := range units {
		k := strings.ToLower(strings.TrimSpace(u.Code))
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, u.Code)
		}
	}
	return dups
}

// Codes は code の一覧を返します。
func Codes(units []FireUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Code)
	}
	return out
}
