package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/weatherjohn/internal/jwt"
)

func newKeygenCmd() *cobra.Command {
	var (
		kid     string
		outPath string
		pubPath string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave P-256 de desarrollo (PKCS8) e imprime su JWK",
		Long: "Genera una clave con la misma forma que un .p8 de Apple. " +
			"Sirve para probar el emisor y el servicio contra un upstream simulado.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := jwtx.NewDevP256(kid)
			if err != nil {
				return err
			}
			priv, err := ks.PrivatePEM()
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, []byte(priv), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			if pubPath != "" {
				pub, err := ks.PublicPEM()
				if err != nil {
					return err
				}
				if err := os.WriteFile(pubPath, []byte(pub), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", pubPath, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "private key written to %s\n", outPath)
			_, err = fmt.Fprintln(out, string(ks.JWKSJSON()))
			return err
		},
	}
	cmd.Flags().StringVar(&kid, "kid", "DEVKEY0001", "key id (header kid)")
	cmd.Flags().StringVar(&outPath, "out", "AuthKey_dev.p8", "destino de la clave privada")
	cmd.Flags().StringVar(&pubPath, "pub", "", "destino opcional de la pública (PEM)")
	return cmd
}
