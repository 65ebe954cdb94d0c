package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

func newInspectCmd() *cobra.Command {
	var pubPath string

	cmd := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decodifica una credencial y, con --pub, verifica la firma",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := jwtx.Decode(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printJSON(out, d); err != nil {
				return err
			}
			if pubPath == "" {
				return nil
			}

			b, err := os.ReadFile(pubPath)
			if err != nil {
				return err
			}
			pub, err := jwtx.ParseECPublicKey(string(b))
			if err != nil {
				return err
			}
			if _, err := jwtx.VerifyES256(args[0], pub); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, "signature: valid")
			return err
		},
	}
	cmd.Flags().StringVar(&pubPath, "pub", "", "pública PEM para verificar firma y exp")
	return cmd
}
