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
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/chfoo/warcat-go/message"
)

func newDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "emit every record header in a WARC file as NDJSON",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("%w: decode requires exactly one FILE argument", ErrWarcat)
			}
			return runDecode(c.Args().First(), c.App.Writer)
		},
	}
}

func runDecode(path string, out io.Writer) error {
	dec, f, err := openDecoder(path)
	if err != nil {
		return fmt.Errorf("%w: opening %q: %w", ErrWarcat, path, err)
	}
	defer f.Close()

	header := dec
	for header.HasNextRecord() {
		h, block, err := header.ReadHeader()
		if err != nil {
			return fmt.Errorf("%w: reading %q: %w", ErrWarcat, path, err)
		}

		if _, err := io.Copy(io.Discard, block); err != nil {
			return fmt.Errorf("%w: reading block in %q: %w", ErrWarcat, path, err)
		}
		next, err := block.FinishBlock()
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrWarcat, path, err)
		}
		header = next

		line, err := message.MarshalNDJSON(message.FromHeader(h))
		if err != nil {
			return fmt.Errorf("%w: marshaling %q: %w", ErrWarcat, path, err)
		}
		if _, err := out.Write(line); err != nil {
			return err
		}
	}
	return nil
}
