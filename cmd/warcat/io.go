// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"os"

	"github.com/chfoo/warcat-go/compress"
	"github.com/chfoo/warcat-go/warc"
)

// openDecoder opens path and sniffs its compression format from the
// leading magic bytes, since a WARC file on disk carries no out-of-band
// indication of whether it is gzip/zstd/identity framed.
func openDecoder(path string) (*warc.DecoderHeader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(4)

	format := compress.Identity
	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		format = compress.Gzip
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		format = compress.Zstandard
	}

	dec, err := warc.NewDecoder(br, warc.DecoderConfig{Format: format})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return dec, f, nil
}
