// The interactive shell: tokenizes one line at a time and dispatches it
// through its own command switch (separate from the urfave/cli subcommand
// table in main.go), in the style of original_source/main.c's
// read-eval-print loop.
package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/extfs-project/extfs"
)

func runShellLoop(stream io.ReadWriteSeeker, in io.Reader, out io.Writer) error {
	session, err := extfs.Open(stream)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", session.Getwd())
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "exit" {
			break
		}

		if err := dispatch(session, fields, out); err != nil {
			fmt.Fprintf(out, "error: %s\n", err.Error())
		}
	}

	return session.Close()
}

func dispatch(session *extfs.Session, fields []string, out io.Writer) error {
	switch fields[0] {
	case "pwd":
		fmt.Fprintln(out, session.Getwd())
		return nil

	case "cd":
		if len(fields) != 2 {
			return fmt.Errorf("usage: cd DIR")
		}
		return session.Chdir(fields[1])

	case "ls":
		entries, err := session.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			kind := "f"
			if e.IsDir {
				kind = "d"
			}
			fmt.Fprintf(out, "%s %8d  %s\n", kind, e.InodeNumber, e.Name)
		}
		return nil

	case "mkdir":
		if len(fields) != 2 {
			return fmt.Errorf("usage: mkdir NAME")
		}
		_, err := session.Mkdir(fields[1], 0o755)
		return err

	case "rm":
		return runRm(session, fields)

	case "cf":
		if len(fields) < 3 {
			return fmt.Errorf("usage: cf NAME EXTENSION [DATA]")
		}
		var data []byte
		if len(fields) > 3 {
			data = []byte(strings.Join(fields[3:], " "))
		}
		_, err := session.CreateFile(fields[1], fields[2], 0o644, data)
		return err

	case "rf":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rf NAME")
		}
		payload, err := session.ReadFile(fields[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", string(payload.Data))
		return nil

	case "wf":
		return runWf(session, fields)

	case "test":
		if len(fields) != 2 {
			return fmt.Errorf("usage: test NAME")
		}
		_, err := session.ReadFile(fields[1])
		if err == nil {
			fmt.Fprintln(out, "exists")
			return nil
		}
		fmt.Fprintln(out, "does not exist")
		return nil

	case "fsck":
		report, err := session.CheckConsistency()
		if err != nil {
			return err
		}
		if report.OK() {
			fmt.Fprintln(out, "no problems found")
			return nil
		}
		for _, p := range report.Problems {
			fmt.Fprintf(out, "[%s] %s\n", p.Code, p.Message)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func runRm(session *extfs.Session, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: rm -f|-d NAME")
	}
	switch fields[1] {
	case "-f":
		return session.DeleteFile(fields[2])
	case "-d":
		return session.Rmdir(fields[2], true)
	default:
		return fmt.Errorf("rm: unknown flag %q", fields[1])
	}
}

func runWf(session *extfs.Session, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("usage: wf -a|-o NAME [DATA]")
	}
	var mode extfs.WriteMode
	switch fields[1] {
	case "-a":
		mode = extfs.WriteAppend
	case "-o":
		mode = extfs.WriteOverwrite
	default:
		return fmt.Errorf("wf: unknown flag %q", fields[1])
	}

	var data []byte
	if len(fields) > 3 {
		data = []byte(strings.Join(fields[3:], " "))
	}
	return session.WriteFile(fields[2], data, mode)
}
