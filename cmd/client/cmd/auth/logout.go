// cmd/client/cmd/auth/logout.go
package auth

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Полный сброс контекста: сессия, контекст арендатора и кэш
учетных данных удаляются. Локальные записи остаются на устройстве.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		if err := app.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}

		color.Green("✓ Выход выполнен")
		return nil
	},
}
