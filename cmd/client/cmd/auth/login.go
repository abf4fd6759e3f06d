// cmd/client/cmd/auth/login.go
package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
	"agrosync/internal/app/client/credcache"
)

var LoginCmd = &cobra.Command{
	Use:   "login [farmer-id]",
	Short: "Войти в систему AgroSync",
	Long: `Аутентификация на сервере AgroSync.

Без связи вход выполняется по кэшу учетных данных, сохраненному при
последнем успешном онлайн-входе. После входа токен сохраняется локально.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		farmerID := args[0]

		fmt.Print("Пароль: ")
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		result, err := app.Login(cmd.Context(), farmerID, string(secret))
		if err != nil {
			switch {
			case errors.Is(err, credcache.ErrNotCached):
				return fmt.Errorf("офлайн-вход невозможен: учетные данные ни разу не кэшировались")
			case errors.Is(err, credcache.ErrBadCredential):
				return fmt.Errorf("неверный пароль")
			default:
				return fmt.Errorf("ошибка входа: %w", err)
			}
		}

		if result.Online {
			color.Green("✓ Вход выполнен (онлайн)")
		} else {
			color.Yellow("✓ Вход выполнен по кэшу (офлайн)")
			fmt.Println("Синхронизация запустится, когда появится связь.")
		}

		return nil
	},
}
