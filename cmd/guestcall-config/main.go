// Command guestcall-config validates host configuration files, prints the
// default configuration or prints the configuration JSON schema.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/reglet-dev/guestcall/config"
)

func main() {
	validate := flag.String("validate", "", "validate a TOML or YAML config file")
	schema := flag.Bool("schema", false, "print the config JSON schema")
	flag.Parse()

	if err := run(os.Stdout, *validate, *schema); err != nil {
		fmt.Fprintf(os.Stderr, "guestcall-config: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, validatePath string, schema bool) error {
	switch {
	case validatePath != "":
		if _, err := config.Load(validatePath); err != nil {
			return err
		}
		fmt.Fprintf(w, "Validated config at %s\n", validatePath)
		return nil
	case schema:
		out, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return toml.NewEncoder(w).Encode(config.Default())
	}
}
