package parcel

import (
	"fmt"

	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
)

// ParcelCmd — родительская команда для земельных участков.
var ParcelCmd = &cobra.Command{
	Use:   "parcel",
	Short: "Земельные участки",
	Long:  `Создание, просмотр и удаление земельных участков хозяйства.`,
}

// appFrom достает приложение из контекста команды.
func appFrom(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}
