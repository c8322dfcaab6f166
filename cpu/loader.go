package cpu

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadListing parses a listing of binary literals into a Program.
//
// Each line holds an optional 8 digit binary literal, most significant bit
// first, optionally followed by a '#' comment. Blank and comment-only lines
// are skipped. Bytes are placed at consecutive addresses from 0.
func LoadListing(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	prog = &Program{}
	address := 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		text, _, _ = strings.Cut(text, "#")
		line = strings.TrimSpace(text)
		if len(line) == 0 {
			continue
		}

		var value byte
		value, err = parseBinary(line)
		if err != nil {
			return
		}

		if address >= MEMORY_SIZE {
			err = ErrProgramTooLarge
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo:  lineno,
			Address: address,
			Text:    line,
			Bytes:   []byte{value},
		})
		address++
	}

	line = ""
	err = scanner.Err()

	return
}

// parseBinary parses an 8 digit binary literal.
func parseBinary(word string) (value byte, err error) {
	if len(word) != 8 {
		err = ErrMalformedInstruction
		return
	}

	for _, digit := range word {
		value <<= 1
		switch digit {
		case '0':
		case '1':
			value |= 1
		default:
			err = ErrMalformedInstruction
			return
		}
	}

	return
}

// openFile opens path, mapping a missing file to ErrFileNotFound.
func openFile(path string) (file *os.File, err error) {
	file, err = os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = errors.Wrapf(ErrFileNotFound, "%v", path)
	} else if err != nil {
		err = errors.Wrap(err, path)
	}

	return
}

// LoadFile loads a listing of binary literals from path.
func LoadFile(path string) (prog *Program, err error) {
	inf, err := openFile(path)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err = LoadListing(inf)
	if err != nil {
		err = errors.Wrap(err, path)
	}

	return
}

// ParseFile assembles the source file at path.
func (asm *Assembler) ParseFile(path string) (prog *Program, err error) {
	inf, err := openFile(path)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err = asm.Parse(inf)
	if err != nil {
		err = errors.Wrap(err, path)
	}

	return
}
