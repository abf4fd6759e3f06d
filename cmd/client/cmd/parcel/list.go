// cmd/client/cmd/parcel/list.go
package parcel

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agrosync/internal/domain/entity"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список участков",
	Long: `Просмотр земельных участков. При наличии связи показывается
серверное состояние, без связи — локальная копия.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		records, err := app.Facade().Fetch(cmd.Context(), entity.TypeLandParcel)
		if err != nil {
			return fmt.Errorf("ошибка получения списка участков: %w", err)
		}

		if listFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(records)
		}

		return printParcelsTable(records)
	},
}

func printParcelsTable(records []*entity.Record) error {
	if len(records) == 0 {
		fmt.Println("Участков нет.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tИМЯ\tПЛОЩАДЬ\tКУЛЬТУРА\tСТАТУС\tИЗМЕНЕН")

	for _, rec := range records {
		var p entity.LandParcel
		if err := rec.DecodePayload(&p); err != nil {
			continue
		}

		modified := time.UnixMilli(rec.LastModified).Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s\t%s\t%.2f га\t%s\t%s\t%s\n",
			rec.ID, p.Name, p.AreaHa, p.Crop, rec.SyncStatus, modified)
	}

	return w.Flush()
}

func init() {
	ListCmd.Flags().StringVar(&listFormat, "format", "table", "формат вывода (table, json)")
}
