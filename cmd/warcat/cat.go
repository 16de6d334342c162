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

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"
)

func newCatCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "list the records in a WARC file as a table",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("%w: cat requires exactly one FILE argument", ErrWarcat)
			}
			return runCat(c.Args().First())
		},
	}
}

func runCat(path string) error {
	dec, f, err := openDecoder(path)
	if err != nil {
		return fmt.Errorf("%w: opening %q: %w", ErrWarcat, path, err)
	}
	defer f.Close()

	tbl := table.New("offset", "type", "record-id", "target-uri", "content-length")

	header := dec
	for header.HasNextRecord() {
		offset := header.RecordBoundaryPosition()
		h, block, err := header.ReadHeader()
		if err != nil {
			return fmt.Errorf("%w: reading %q: %w", ErrWarcat, path, err)
		}

		recordType, _ := h.Type()
		recordID, _ := h.RecordID()
		targetURI, _ := h.Fields.Get("WARC-Target-URI")
		contentLength, _ := h.Fields.Get("Content-Length")

		if _, err := io.Copy(io.Discard, block); err != nil {
			return fmt.Errorf("%w: reading block in %q: %w", ErrWarcat, path, err)
		}
		next, err := block.FinishBlock()
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrWarcat, path, err)
		}
		header = next

		tbl.AddRow(offset, recordType, recordID, targetURI, contentLength)
	}

	tbl.Print()
	return nil
}
