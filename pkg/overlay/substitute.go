// Copyright (c) 2025, Drydock Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package overlay

import "regexp"

// tokenRegex matches ${TOKEN} placeholders in base resource templates.
var tokenRegex = regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)\}`)

// substituteTokens replaces each ${TOKEN} whose name has a non-empty value in
// values. Tokens without a value are left in place; the caller decides whether
// a residual token is an error (scanUnresolved) or expected for a later patch.
func substituteTokens(doc string, values map[string]string) string {
	return tokenRegex.ReplaceAllStringFunc(doc, func(match string) string {
		name := tokenRegex.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok && v != "" {
			return v
		}
		return match
	})
}

// scanUnresolved returns the names of placeholder tokens still present in the
// document, in order of first appearance, deduplicated.
func scanUnresolved(doc string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range tokenRegex.FindAllStringSubmatch(doc, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
