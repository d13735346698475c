package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdinReader is shared so buffered input is not lost between prompts.
var stdinReader = bufio.NewReader(os.Stdin)

// bufferedInput returns a reader that can be shared by several prompts.
func bufferedInput(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	if r == os.Stdin {
		return stdinReader
	}
	return bufio.NewReader(r)
}

// readLine reads one line from r, trimmed. EOF with no input is an error.
// Callers prompting more than once pass the result of bufferedInput.
func readLine(r io.Reader) (string, error) {
	line, err := bufferedInput(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptDefault asks for a value and returns def when the answer is empty.
func promptDefault(in io.Reader, out io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	answer, err := readLine(in)
	if err != nil || answer == "" {
		return def
	}
	return answer
}

// confirm asks a yes/no question. Anything but y/yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := readLine(in)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
