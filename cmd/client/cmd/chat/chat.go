package chat

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
	"agrosync/internal/domain/entity"
)

// ChatCmd — родительская команда сессий чата.
var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Сессии чата",
	Long:  `Просмотр сводок сессий чата. Сам диалог ведется вне этого клиента.`,
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список сессий",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		records, err := app.Facade().Fetch(cmd.Context(), entity.TypeChatSession)
		if err != nil {
			return fmt.Errorf("ошибка получения сессий: %w", err)
		}
		if len(records) == 0 {
			fmt.Println("Сессий нет.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tТЕМА\tСООБЩЕНИЙ\tНАЧАЛО\tСТАТУС")

		for _, rec := range records {
			var s entity.ChatSession
			if err := rec.DecodePayload(&s); err != nil {
				continue
			}
			started := time.UnixMilli(s.StartedAt).Format("2006-01-02 15:04")
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				rec.ID, s.Title, s.MessageCount, started, rec.SyncStatus)
		}

		return w.Flush()
	},
}
