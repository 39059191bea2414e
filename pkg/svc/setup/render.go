package setup

import "strings"

var operandEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Render formats an argument-vector command as the shell line executed on the
// remote host. The program name and flag tokens pass through bare; operands
// are double-quoted so paths with spaces, globs and dollar signs reach the
// remote shell verbatim.
func Render(command []string) string {
	if len(command) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(command))
	rendered = append(rendered, command[0])

	for _, arg := range command[1:] {
		if strings.HasPrefix(arg, "-") {
			rendered = append(rendered, arg)

			continue
		}

		rendered = append(rendered, `"`+operandEscaper.Replace(arg)+`"`)
	}

	return strings.Join(rendered, " ")
}
