package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

func newTokenCmd(opts *rootOpts) *cobra.Command {
	var decode bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite una credencial ES256 (\"Bearer ...\") con la identidad configurada",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			tok, err := jwtx.NewIssuer(jwtx.StaticIdentity(cfg.Identity())).Issue()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tok)
			if decode {
				d, err := jwtx.Decode(tok)
				if err != nil {
					return err
				}
				return printJSON(out, d)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&decode, "decode", false, "imprimir además header y claims")
	return cmd
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
