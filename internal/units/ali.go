// Package units implements separate-compilation discovery and the
// library-interface (.ali) file format (spec §4.9/§6), generalizing the
// teacher's single-file compilation model (src/main.go's run() reads one
// source and never looks elsewhere) into a small include-path search.
package units

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Interface is the parsed content of one .ali file: the exported surface
// of a compiled unit, enough for a dependent compilation to register
// external symbols without re-parsing the unit's source (spec §4.9
// "Additionally read P/lowercase(N).ali").
type Interface struct {
	Version      string
	Unit         string
	Withs        []WithEntry
	Dependencies []string
	Exports      []Export
	Exceptions   []string
	ElabCount    int
}

type WithEntry struct {
	Name  string
	Mtime int64
}

// Export is one subprogram visible to dependents, using the reduced type
// vocabulary spec §4.9 defines for the .ali format: void, i64, double,
// ptr.
type Export struct {
	MangledName string
	ReturnType  string
	ParamTypes  []string
}

// WriteALI renders iface in the line-oriented format spec §4.9 names:
// V/U/W/D/X/H/E lines, one record per line, unknown lines ignored by
// readers.
func WriteALI(w io.Writer, iface Interface) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "V %s\n", iface.Version)
	fmt.Fprintf(bw, "U %s\n", iface.Unit)
	for _, wEnt := range iface.Withs {
		fmt.Fprintf(bw, "W %s %d\n", wEnt.Name, wEnt.Mtime)
	}
	for _, d := range iface.Dependencies {
		fmt.Fprintf(bw, "D %s\n", d)
	}
	for _, x := range iface.Exports {
		fmt.Fprintf(bw, "X %s %s", x.MangledName, x.ReturnType)
		for _, p := range x.ParamTypes {
			fmt.Fprintf(bw, " %s", p)
		}
		fmt.Fprintln(bw)
	}
	for _, h := range iface.Exceptions {
		fmt.Fprintf(bw, "H %s\n", h)
	}
	fmt.Fprintf(bw, "E %d\n", iface.ElabCount)
	return bw.Flush()
}

// ReadALI parses the format WriteALI emits. Malformed or unrecognized
// lines are skipped rather than rejected, matching spec §4.9's "unknown
// lines ignored".
func ReadALI(r io.Reader) (Interface, error) {
	var iface Interface
	iface.Version = "1.0"

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "V":
			if len(fields) >= 2 {
				iface.Version = fields[1]
			}
		case "U":
			if len(fields) >= 2 {
				iface.Unit = fields[1]
			}
		case "W":
			if len(fields) >= 3 {
				mtime, _ := strconv.ParseInt(fields[2], 10, 64)
				iface.Withs = append(iface.Withs, WithEntry{Name: fields[1], Mtime: mtime})
			}
		case "D":
			if len(fields) >= 2 {
				iface.Dependencies = append(iface.Dependencies, fields[1])
			}
		case "X":
			if len(fields) >= 3 {
				iface.Exports = append(iface.Exports, Export{
					MangledName: fields[1],
					ReturnType:  fields[2],
					ParamTypes:  append([]string(nil), fields[3:]...),
				})
			}
		case "H":
			if len(fields) >= 2 {
				iface.Exceptions = append(iface.Exceptions, fields[1])
			}
		case "E":
			if len(fields) >= 2 {
				n, _ := strconv.Atoi(fields[1])
				iface.ElabCount = n
			}
		}
		// Unrecognized first field: ignored, per spec.
	}
	return iface, sc.Err()
}
