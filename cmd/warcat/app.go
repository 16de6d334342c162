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
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeProblemsFound is the exit code for a clean verify run that
	// recorded one or more conformance problems.
	ExitCodeProblemsFound

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = errors.New("parsing flags")

// ErrWarcat wraps every error this CLI reports to the user.
var ErrWarcat = errors.New("warcat")

func init() {
	cli.HelpFlag = &cli.BoolFlag{
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check panics if err is not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

func newWarcatApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Inspect and verify WARC (ISO 28500) archives.",
		Description: strings.Join([]string{
			"warcat CLI written in Go.",
			"https://github.com/chfoo/warcat-rs",
		}, "\n"),
		Commands: []*cli.Command{
			newVerifyCommand(),
			newCatCommand(),
			newDecodeCommand(),
		},
		HideHelp:        true,
		HideHelpCommand: true,
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", c.App.Name, err)
			if errors.Is(err, ErrFlagParse) {
				cli.OsExiter(ExitCodeFlagParseError)
				return
			}
			if errors.Is(err, ErrProblemsFound) {
				cli.OsExiter(ExitCodeProblemsFound)
				return
			}
			cli.OsExiter(ExitCodeUnknownError)
		},
	}
}

func main() {
	app := newWarcatApp()
	check(app.Run(os.Args))
}
