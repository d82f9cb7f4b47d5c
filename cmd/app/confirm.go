package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/starford/mindflow/internal/noteservice"
)

// promptConfirmer asks prompt on out and reads a y/N answer from in.
// Anything but "y" or "yes" declines, end of input included.
func promptConfirmer(in io.Reader, out io.Writer, assumeYes bool) noteservice.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(_ context.Context, prompt string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
