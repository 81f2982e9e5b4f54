// Command keygen prints a fresh RS256 signing key pair in the encoding the
// auth service reads from AUTH_JWT_PRIVATE_KEY and AUTH_JWT_PUBLIC_KEY.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		bits      int
		format    string
		publicPEM bool
	)

	flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.IntVar(&bits, "bits", 3072, "RSA modulus size in bits (minimum 2048)")
	flagSet.StringVar(&format, "format", "env", "output format: env (KEY=value lines) or raw (two lines, private first)")
	flagSet.BoolVar(&publicPEM, "pem", false, "also print the public key as PEM")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if format != "env" && format != "raw" {
		return fmt.Errorf("unknown format %q", format)
	}

	priv, err := cryptox.GenerateRSAKey(bits)
	if err != nil {
		return err
	}
	privB64, pubB64, err := jwtx.EncodeKeyPair(priv)
	if err != nil {
		return err
	}

	if format == "raw" {
		_, err = fmt.Fprintf(out, "%s\n%s\n", privB64, pubB64)
	} else {
		_, err = fmt.Fprintf(out, "AUTH_JWT_PRIVATE_KEY=%s\nAUTH_JWT_PUBLIC_KEY=%s\n", privB64, pubB64)
	}
	if err != nil || !publicPEM {
		return err
	}

	kp, err := jwtx.NewKeyPair(priv)
	if err != nil {
		return err
	}
	block, err := kp.PublicJWK().PEM()
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, block)
	return err
}
