// Copyright © 2024 The ELPS authors

package repl

import (
	"io"
	"os"

	"github.com/luthersystems/cool/diagnostic"
)

// renderError renders err using the diagnostic renderer for Rust-style
// annotated output.  Spans in text typed at the prompt are read from src.
func renderError(w io.Writer, err error, src string) {
	d := diagnostic.FromError(err)
	d.Notes = append(d.Notes, "use :help to list repl commands")
	r := &diagnostic.Renderer{
		Color: diagnostic.ColorAuto,
		SourceReader: func(path string) ([]byte, error) {
			if path == inputName {
				return []byte(src), nil
			}
			return os.ReadFile(path) //#nosec G304
		},
	}
	_ = r.Render(w, d)
}
