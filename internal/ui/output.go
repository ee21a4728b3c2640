package ui

import (
	"fmt"
	"io"
)

// FOK prints a success line to w.
func FOK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.SuccessStyle().Render(t.SymOK+" "+msg))
}

// FFail prints an error line to w.
func FFail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.ErrorStyle().Render(t.SymFail+" "+msg))
}
