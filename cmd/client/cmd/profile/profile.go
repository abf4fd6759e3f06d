package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
	"agrosync/internal/domain/entity"
)

// ProfileCmd — родительская команда профиля фермера.
var ProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Профиль фермера",
}

var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать профиль",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		records, err := app.Facade().Fetch(cmd.Context(), entity.TypeProfile)
		if err != nil {
			return fmt.Errorf("ошибка получения профиля: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("Профиль еще не создан.")
			return nil
		}

		var p entity.Profile
		if err := records[0].DecodePayload(&p); err != nil {
			return fmt.Errorf("ошибка чтения профиля: %w", err)
		}

		tc := app.Tenant().Current()
		fmt.Printf("Имя:       %s\n", p.Name)
		fmt.Printf("Телефон:   %s\n", p.Phone)
		fmt.Printf("Деревня:   %s\n", p.Village)
		fmt.Printf("Арендатор: %s (%s)\n", tc.TenantID, tc.Domain)
		fmt.Printf("Статус:    %s\n", records[0].SyncStatus)

		return nil
	},
}
