package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"askdb/internal/controller"
	"askdb/internal/render"
	"askdb/internal/settings"
)

func newConnectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn"},
		Short:   "Manage the database connection sent with each question",
	}
	cmd.AddCommand(newConnectionSetCommand())
	cmd.AddCommand(newConnectionShowCommand())
	return cmd
}

func newConnectionSetCommand() *cobra.Command {
	var fields settings.ConnectionSettings

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save connection settings",
		Long: `Save the connection settings. The whole record is replaced: a field
left out is stored as its default (host localhost, user root, otherwise empty).`,
		Example: `  askdb connection set --host db.internal --user analyst --database shop`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := commandEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			saved, err := e.controller(discardView{}).SaveConnectionSettings(cmd.Context(), fields)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved!")
			return printConnection(cmd.OutOrStdout(), saved.Masked(), false)
		},
	}

	cmd.Flags().StringVar(&fields.Host, "host", "", "Database host")
	cmd.Flags().StringVar(&fields.User, "user", "", "Database user")
	cmd.Flags().StringVar(&fields.Password, "password", "", "Database password")
	cmd.Flags().StringVar(&fields.Database, "database", "", "Database name")
	return cmd
}

func newConnectionShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the connection settings the next question will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := commandEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			conn, err := e.controller(discardView{}).ConnectionSettings(cmd.Context())
			if err != nil {
				e.log.Warn().Err(err).Msg("showing default connection settings")
			}
			return printConnection(cmd.OutOrStdout(), conn.Masked(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func printConnection(w io.Writer, c settings.ConnectionSettings, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Host", c.Host},
		{"User", c.User},
		{"Password", c.Password},
		{"Database", c.Database},
	})
	t.Render()
	return nil
}

// discardView is the view for commands that never submit
type discardView struct{}

var _ controller.View = discardView{}

func (discardView) SetBusy(bool)                {}
func (discardView) ShowError(string)            {}
func (discardView) HideError()                  {}
func (discardView) HideResults()                {}
func (discardView) ShowResults(_ render.Result) {}
