// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"strings"
)

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

// missingNames returns every name in required that is not in available
func missingNames(required, available []string) []string {
	set := make(map[string]struct{}, len(available))
	for _, name := range available {
		set[strings.TrimRight(name, "\x00")] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := set[strings.TrimRight(name, "\x00")]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func containsName(names []string, name string) bool {
	return len(missingNames([]string{name}, names)) == 0
}
