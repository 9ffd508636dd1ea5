package smtp

import "strings"

// Extensions is the table built from the EHLO continuation lines (section
// 4.M step 3): extension name -> its space-separated parameters. "AUTH=x"
// on its own line (an old-style extended SMTP quirk) is normalized to the
// "AUTH" extension with parameter "x".
type Extensions map[string][]string

// ParseExtensions turns the EHLO reply lines following the greeting line,
// with their "250-"/"250 " prefix already stripped ("SIZE 52428800",
// "AUTH PLAIN LOGIN", "HELP"), into a table.
func ParseExtensions(lines []string) Extensions {
	ext := make(Extensions, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(line), "AUTH=") {
			ext["AUTH"] = append(ext["AUTH"], line[len("AUTH="):])
			continue
		}
		fields := strings.Fields(line)
		name := strings.ToUpper(fields[0])
		ext[name] = append(ext[name], fields[1:]...)
	}
	return ext
}

func (e Extensions) Has(name string) bool {
	_, ok := e[strings.ToUpper(name)]
	return ok
}

func (e Extensions) Params(name string) []string {
	return e[strings.ToUpper(name)]
}

// AuthMechanisms returns the mechanism names from the AUTH extension.
func (e Extensions) AuthMechanisms() []string {
	return e.Params("AUTH")
}
