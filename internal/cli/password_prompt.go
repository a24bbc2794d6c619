package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// readPasswordNoEcho reads one line from a terminal with echo switched off.
func readPasswordNoEcho(stdin *os.File) ([]byte, error) {
	if stdin == nil {
		return nil, errors.New("stdin unavailable")
	}

	restore, err := disableEcho(stdin)
	if err != nil {
		return nil, fmt.Errorf("disable terminal echo: %w", err)
	}
	defer restore()

	return readPasswordLine(bufio.NewReader(stdin))
}

func readPasswordLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return nil, io.ErrUnexpectedEOF
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
