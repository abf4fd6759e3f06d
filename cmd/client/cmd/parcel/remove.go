// cmd/client/cmd/parcel/remove.go
package parcel

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var RemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Удалить участок",
	Long: `Мягкое удаление участка: запись помечается удаленной локально
и удаляется на сервере при следующей синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		if err := app.Facade().Remove(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления участка: %w", err)
		}

		color.Green("✓ Участок помечен удаленным, удаление уйдет на сервер при синхронизации")
		return nil
	},
}
