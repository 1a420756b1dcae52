package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	cl := &client{
		BaseURL:   envOr("COCHES_API_URL", "http://localhost:8080"),
		OutFormat: envOr("COCHES_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Out:       stdout,
	}

	root := &cobra.Command{
		Use:           "coches",
		Short:         "CLI para la API de coches (/api/coches)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cl.OutFormat != "json" && cl.OutFormat != "text" {
				return fmt.Errorf("--out inválido %q (json|text)", cl.OutFormat)
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&cl.BaseURL, "api-url", cl.BaseURL, "URL base de la API (env COCHES_API_URL)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar coches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do(http.MethodGet, "/api/coches", nil, nil)
			if err != nil {
				return err
			}
			if err := check("list", status, body); err != nil {
				return err
			}
			cl.print(body)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Obtener un coche por id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, body, err := cl.do(http.MethodGet, "/api/coches/"+id, nil, nil)
			if err != nil {
				return err
			}
			if err := check("get", status, body); err != nil {
				return err
			}
			cl.print(body)
			return nil
		},
	}

	// create / update comparten flags de payload
	var (
		marca     string
		potencia  int
		encendido bool
		ifMatch   int64
	)
	payload := func() []byte {
		b, _ := json.Marshal(map[string]any{
			"marca":     marca,
			"potencia":  potencia,
			"encendido": encendido,
		})
		return b
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un coche",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if marca == "" {
				return fmt.Errorf("--marca es requerido")
			}
			status, body, err := cl.do(http.MethodPost, "/api/coches", payload(), nil)
			if err != nil {
				return err
			}
			if err := check("create", status, body); err != nil {
				return err
			}
			cl.print(body)
			return nil
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualizar un coche (reemplazo completo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if marca == "" {
				return fmt.Errorf("--marca es requerido")
			}
			var h map[string]string
			if ifMatch > 0 {
				h = map[string]string{"If-Match": strconv.Quote(strconv.FormatInt(ifMatch, 10))}
			}
			status, body, err := cl.do(http.MethodPut, "/api/coches/"+id, payload(), h)
			if err != nil {
				return err
			}
			if err := check("update", status, body); err != nil {
				return err
			}
			cl.print(body)
			return nil
		},
	}

	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVar(&marca, "marca", "", "Marca del coche")
		c.Flags().IntVar(&potencia, "potencia", 0, "Potencia")
		c.Flags().BoolVar(&encendido, "encendido", false, "Encendido")
	}
	updateCmd.Flags().Int64Var(&ifMatch, "if-match", 0, "Versión esperada (0 = incondicional)")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Borrar un coche",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, body, err := cl.do(http.MethodDelete, "/api/coches/"+id, nil, nil)
			if err != nil {
				return err
			}
			if err := check("delete", status, body); err != nil {
				return err
			}
			if cl.OutFormat == "text" {
				fmt.Fprintln(cl.Out, "ok")
				return nil
			}
			cl.print(body)
			return nil
		},
	}

	root.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
	return root
}

func parseID(s string) (string, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("id inválido %q", s)
	}
	return strconv.FormatInt(id, 10), nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
