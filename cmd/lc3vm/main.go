// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// lc3vm executes LC-3 program images and traces every instruction.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/image"
	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/trace"
)

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func main() {
	var cli struct {
		Run runCmd `cmd:"" default:"withargs" help:"Load a program image and run it."`
	}

	ctx := kong.Parse(&cli,
		kong.Name("lc3vm"),
		kong.Description("An LC-3 virtual machine with an instruction trace."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

type runCmd struct {
	Image string `arg:"" type:"existingfile" help:"Path to the program image."`

	Origin      string `default:"x3000" help:"Load and start address of raw images."`
	Format      string `default:"raw" enum:"raw,obj" help:"Image layout (raw or obj)."`
	ByteOrder   string `default:"native" enum:"native,big,little" help:"Byte order of raw image words."`
	Quiet       bool   `short:"q" help:"Do not print the instruction trace."`
	TraceFile   string `type:"path" help:"Write the trace to a file instead of stdout."`
	Prompts     bool   `help:"Prompt before console input traps."`
	RelativeJSR bool   `name:"relative-jsr" help:"JSR offsets are relative to PC."`
	MaxSteps    uint64 `help:"Stop after this many instructions (0 for no limit)."`
	RawTerm     bool   `help:"Read console keys without waiting for a newline."`
	Debug       bool   `help:"Run under the interactive debugger."`
}

func (r *runCmd) config(origin uint16) machine.Config {
	return machine.Config{
		Origin:      origin,
		Prompts:     r.Prompts,
		RelativeJSR: r.RelativeJSR,
		MaxSteps:    r.MaxSteps,
	}
}

func (r *runCmd) load() (*image.Image, error) {
	origin, err := encoding.DecodeHex(r.Origin)

	if err != nil {
		return nil, fmt.Errorf("--origin %q: %w", r.Origin, err)
	}

	format, err := image.ParseFormat(r.Format)

	if err != nil {
		return nil, err
	}

	order, err := image.ParseByteOrder(r.ByteOrder)

	if err != nil {
		return nil, err
	}

	file, err := os.Open(r.Image)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	img, err := image.Read(file, format, order, origin)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Image, err)
	}

	return img, nil
}

func (r *runCmd) Run() error {
	img, err := r.load()

	if err != nil {
		return err
	}

	log.Printf("Loading '%s' at %#04x...", r.Image, img.Origin)

	mc := machine.New(r.config(img.Origin))
	loaded := mc.Load(img)

	log.Printf("Loaded %d words", loaded)

	if img.Truncated() {
		log.Printf(
			"Image truncated: %d words do not fit above %#04x",
			len(img.Words)-loaded, img.Origin,
		)
	}

	keyboard := bufio.NewReader(os.Stdin)
	mc.Console = &machine.Console{
		Input:  keyboard,
		Output: bufio.NewWriter(os.Stdout),
	}

	var observers trace.Multi
	var tracer *trace.Writer
	var traceFile *bufio.Writer

	if !r.Quiet {
		var out io.Writer = os.Stdout

		if r.TraceFile != "" {
			file, err := os.Create(r.TraceFile)

			if err != nil {
				return err
			}

			defer file.Close()

			traceFile = bufio.NewWriter(file)
			out = traceFile
		}

		tracer = trace.NewWriter(out)
		observers = append(observers, tracer)
	}

	var term *terminal

	if r.RawTerm {
		if term, err = openTerminal(os.Stdin); err == nil {
			err = term.Raw()
		}

		if err != nil {
			return fmt.Errorf("entering raw terminal mode: %w", err)
		}

		defer func() {
			if err := term.Restore(); err != nil {
				log.Println(err)
			}
		}()
	}

	if r.Debug {
		history := trace.NewRecorder(historySize)
		observers = append(observers, history)

		dbg := &debugger.Debugger{}
		sess := &session{
			dbg:     dbg,
			in:      keyboard,
			out:     os.Stdout,
			history: history,
			term:    term,
		}
		dbg.HandleBreak = sess.handleBreak
		dbg.HandleRead = sess.handleRead
		dbg.HandleWrite = sess.handleWrite
		mc.Debugger = dbg

		// Open the prompt before the first instruction
		dbg.Break.Store(true)

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				dbg.Break.Store(true)
			}
		}()
	}

	if len(observers) > 0 {
		mc.Observer = observers
	}

	return finishTrace(mc.Run(), tracer, traceFile)
}

// Flushes the trace file and folds any trace write failure into the result
// of the run. A run error takes precedence.
func finishTrace(runErr error, tracer *trace.Writer, file *bufio.Writer) error {
	if file != nil {
		if err := file.Flush(); err != nil && runErr == nil {
			runErr = fmt.Errorf("writing trace: %w", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if tracer != nil && tracer.Err() != nil {
		return fmt.Errorf("writing trace: %w", tracer.Err())
	}

	return nil
}
