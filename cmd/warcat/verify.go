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
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/chfoo/warcat-go/verify"
	"github.com/chfoo/warcat-go/verify/kvstore"
)

// ErrProblemsFound signals that verify completed cleanly but recorded one
// or more conformance problems; the app's ExitErrHandler maps this to
// ExitCodeProblemsFound rather than ExitCodeUnknownError.
var ErrProblemsFound = errors.New("conformance problems found")

func newVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check one or more WARC files for conformance problems",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "path to a LevelDB directory for the cross-record index; defaults to an in-memory index",
			},
		},
		Action: func(c *cli.Context) error {
			v := verifyRunner{storeDir: c.String("store")}
			return v.Run(c.Args().Slice(), c.App.Writer)
		},
	}
}

type verifyRunner struct {
	storeDir string
}

func (r *verifyRunner) Run(paths []string, out io.Writer) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: verify requires at least one FILE argument", ErrWarcat)
	}

	store, closeStore, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: opening index: %w", ErrWarcat, err)
	}
	defer closeStore()

	v := verify.New(store)

	for _, path := range paths {
		if err := r.verifyFile(v, path); err != nil {
			return fmt.Errorf("%w: verifying %q: %w", ErrWarcat, path, err)
		}
	}

	for {
		more, err := v.VerifyEnd()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWarcat, err)
		}
		if !more {
			break
		}
	}

	problems := v.Problems()
	for _, p := range problems {
		fmt.Fprintf(out, "%s: %s %v\n", p.RecordID, p.Kind, p.Detail)
	}
	if len(problems) == 0 {
		fmt.Fprintln(out, "no problems found")
		return nil
	}
	return fmt.Errorf("%w: %d problem(s) found", ErrProblemsFound, len(problems))
}

func (r *verifyRunner) openStore() (kvstore.Store, func(), error) {
	if r.storeDir == "" {
		store := kvstore.NewMemory()
		return store, func() {}, nil
	}
	store, err := kvstore.OpenLevelDB(r.storeDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func (r *verifyRunner) verifyFile(v *verify.Verifier, path string) error {
	dec, f, err := openDecoder(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := dec
	for header.HasNextRecord() {
		h, block, err := header.ReadHeader()
		if err != nil {
			return err
		}
		if err := v.BeginRecord(h); err != nil {
			return err
		}

		if _, err := io.Copy(verifyBlockSink{v}, block); err != nil {
			return err
		}
		if err := v.EndRecord(); err != nil {
			return err
		}

		next, err := block.FinishBlock()
		if err != nil {
			return err
		}
		if next.HasRecordAtTimeCompressionFault() {
			v.SetRecordAtTimeCompressionFault()
		}
		header = next
	}
	return nil
}

type verifyBlockSink struct {
	v *verify.Verifier
}

func (s verifyBlockSink) Write(p []byte) (int, error) {
	s.v.BlockData(p)
	return len(p), nil
}
