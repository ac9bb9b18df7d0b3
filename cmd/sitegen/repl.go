package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"sitegen/internal/export"
	"sitegen/internal/generation"
	"sitegen/internal/safeio"
)

const quitCommand = "/quit"

type repl struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	outDir string
}

// run streams the first turn, then treats every stdin line as a refinement
// message until EOF or /quit.
func (r *repl) run(ctx context.Context, conv conversation) error {
	defer conv.Close()

	results, err := conv.Start(ctx)
	if err != nil {
		return err
	}
	turn := 1
	if fatal := r.drain(turn, results); fatal {
		return nil
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.errOut, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == quitCommand {
			break
		}
		results, err := conv.Send(ctx, line)
		if err != nil {
			fmt.Fprintf(r.errOut, "send: %v\n", err)
			if generation.KindOf(err) == generation.InvalidCallSequence {
				continue
			}
			return err
		}
		turn++
		if fatal := r.drain(turn, results); fatal {
			return nil
		}
	}
	return scanner.Err()
}

// drain prints one turn. Partial snapshots are cumulative, so only the new
// suffix is written. It reports whether the session can no longer continue.
func (r *repl) drain(turn int, results <-chan generation.Result) bool {
	printed := 0
	for res := range results {
		if res.Streaming {
			if len(res.Freeform) > printed {
				fmt.Fprint(r.out, res.Freeform[printed:])
				printed = len(res.Freeform)
			}
			continue
		}
		switch res.Kind {
		case generation.ResultError:
			if printed > 0 {
				fmt.Fprintln(r.out)
			}
			fmt.Fprintf(r.errOut, "turn %d failed: %v\n", turn, res.Err)
			if res.Raw != "" {
				fmt.Fprintf(r.errOut, "raw model output:\n%s\n", res.Raw)
			}
			if res.Err != nil && res.Err.Kind == generation.SessionOpenFailure {
				return true
			}
			return false
		case generation.ResultArtifacts:
			if printed > 0 {
				fmt.Fprintln(r.out)
			}
			for _, a := range res.Artifacts {
				fmt.Fprintf(r.out, "--- %s (%d bytes)\n", a.Path, len(a.Content))
			}
		default:
			if len(res.Freeform) > printed {
				fmt.Fprint(r.out, res.Freeform[printed:])
			}
			fmt.Fprintln(r.out)
		}
		for _, c := range res.Citations {
			fmt.Fprintf(r.out, "source: %s %s\n", c.URI, c.Title)
		}
		if err := r.writeFiles(turn, res); err != nil {
			fmt.Fprintf(r.errOut, "write files: %v\n", err)
		}
	}
	return false
}

func (r *repl) writeFiles(turn int, res generation.Result) error {
	if r.outDir == "" {
		return nil
	}
	files, err := export.Files(res)
	if errors.Is(err, export.ErrNothingToExport) {
		return nil
	}
	if err != nil {
		return err
	}
	dir, err := safeio.NewDir(r.outDir)
	if err != nil {
		return err
	}
	prefix := fmt.Sprintf("turn-%03d", turn)
	for _, f := range files {
		if err := dir.WriteFile(path.Join(prefix, f.Path), f.Content); err != nil {
			return err
		}
	}
	fmt.Fprintf(r.errOut, "wrote %d file(s) to %s\n", len(files), filepath.Join(dir.Root(), prefix))
	return nil
}
