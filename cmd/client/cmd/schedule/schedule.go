package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
	"agrosync/internal/domain/entity"
)

// ScheduleCmd — родительская команда для расписаний работ.
var ScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Расписания работ",
	Long:  `Просмотр сгенерированных расписаний работ по культурам.`,
}

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список расписаний",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		records, err := app.Facade().Fetch(cmd.Context(), entity.TypeCropSchedule)
		if err != nil {
			return fmt.Errorf("ошибка получения расписаний: %w", err)
		}

		if listFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(records)
		}

		if len(records) == 0 {
			fmt.Println("Расписаний нет.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tКУЛЬТУРА\tСЕЗОН\tЗАДАЧ\tСТАТУС")

		for _, rec := range records {
			var s entity.CropSchedule
			if err := rec.DecodePayload(&s); err != nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				rec.ID, s.Crop, s.Season, len(s.Tasks), rec.SyncStatus)
		}

		return w.Flush()
	},
}

func init() {
	ListCmd.Flags().StringVar(&listFormat, "format", "table", "формат вывода (table, json)")
}
