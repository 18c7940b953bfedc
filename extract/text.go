// Copyright 2025 The Semindex Authors
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

package extract

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/semindex/semindex/fault"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textFallbacks are tried in order when content is not valid UTF-8.
var textFallbacks = []encoding.Encoding{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// extractText reads a file as text, attempting encoding fallbacks.
// It never fails on undecodable content; as a last resort invalid
// sequences are replaced rather than rejected.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fault.Wrap(fault.KindInternal, err, "failed to read %s", path)
	}

	return decodeText(data), nil
}

// decodeText decodes bytes with the fallback chain: UTF-8 (with or
// without BOM), Latin-1, Windows-1252, then lossy replacement.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return string(data)
	}

	for _, enc := range textFallbacks {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}

	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
