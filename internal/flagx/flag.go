// Package flagx helps split the command line between several flag consumers:
// the config-file flag is read early, the remaining overrides later, without
// either FlagSet choking on flags it does not define.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only those arguments that belong to allowedFlags, in their
// original order. A flag's value is carried along whether it is attached with
// '=' or follows as a separate argument; a dash-prefixed next argument is
// never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

// JsonConfigFlags returns the config file path given via -c or -config, or
// the empty string. Only these two flags are inspected so the application's
// own FlagSet can be parsed afterwards.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
