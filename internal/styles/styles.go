package styles

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styler colours message prefixes for one writer. Writers that are not
// terminals get plain text.
type Styler struct {
	out *termenv.Output
}

// For returns a Styler for w.
func For(w io.Writer) Styler {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return Styler{out: termenv.NewOutput(f)}
	}
	return Styler{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

func (s Styler) Error(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("9")).
		String()
}

func (s Styler) Warn(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("11")).
		Bold().
		String()
}

func (s Styler) Success(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("10")).
		String()
}

func (s Styler) Faint(str string) string {
	return s.out.String(str).
		Foreground(s.out.Color("8")).
		String()
}
