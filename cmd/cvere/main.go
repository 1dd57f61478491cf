// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"github.com/ezrec/cvere/cpu"
	"github.com/ezrec/cvere/emulator"
)

// parseWords parses a comma or space separated list of hex instruction words.
func parseWords(text string) (words []uint16, err error) {
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		field = strings.TrimPrefix(strings.ToLower(field), "0x")
		value, perr := strconv.ParseUint(field, 16, 16)
		if perr != nil {
			err = fmt.Errorf("'%v' is not an instruction word", field)
			return
		}
		words = append(words, uint16(value))
	}

	return
}

func main() {
	var compile string
	var hexwords string
	var disasm bool
	var cycles uint64
	var input string
	var terminal bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&hexwords, "x", "", "hex instruction words to load")
	flag.BoolVar(&disasm, "d", false, "Disassemble, do not execute")
	flag.Uint64Var(&cycles, "n", emulator.DEFAULT_CYCLE_LIMIT, "Cycle ceiling")
	flag.StringVar(&input, "i", "", "Text to queue as console input")
	flag.BoolVar(&terminal, "t", false, "Mirror console output to a raw terminal")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	var words []uint16
	var err error

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		words, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(hexwords) != 0:
		words, err = parseWords(hexwords)
		if err != nil {
			log.Fatalf("%v: %v", os.Args[0], err)
		}
	default:
		log.Fatalf("%v: no program: use -c or -x", os.Args[0])
	}

	emu.Program = words

	if disasm {
		fmt.Print(emu.Listing())
		return
	}

	if terminal {
		fd := os.Stdin.Fd()
		var saved unix.Termios
		if err := termios.Tcgetattr(fd, &saved); err == nil {
			raw := saved
			raw.Lflag &^= unix.ICANON | unix.ECHO
			termios.Tcsetattr(fd, termios.TCSANOW, &raw)
			defer termios.Tcsetattr(fd, termios.TCSANOW, &saved)
		}
		emu.Console.Display = os.Stdout
	}

	emu.Reset()
	emu.Console.QueueInput(input)

	ran, err := emu.Run(cycles)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	if verbose {
		log.Printf("ran %v cycles", ran)
	}

	fmt.Print(emu.Vm)
	if output := emu.Console.Output(); output != "" && !terminal {
		fmt.Printf("\nConsole:\n%v\n", output)
	}
}
