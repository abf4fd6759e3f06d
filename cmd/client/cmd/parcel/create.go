// cmd/client/cmd/parcel/create.go
package parcel

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"agrosync/internal/domain/entity"
)

var (
	createName string
	createArea float64
	createCrop string
	createSoil string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать участок",
	Long: `Создает земельный участок. Запись сохраняется локально сразу
и уходит на сервер при следующей синхронизации — связь не требуется.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		if createName == "" {
			return fmt.Errorf("укажите имя участка: --name")
		}

		tc := app.Tenant().Current()
		rec, err := entity.NewRecord(entity.TypeLandParcel, tc.TenantID, tc.FarmerID, entity.LandParcel{
			Name:     createName,
			AreaHa:   createArea,
			Crop:     createCrop,
			SoilType: createSoil,
		})
		if err != nil {
			return fmt.Errorf("ошибка создания записи: %w", err)
		}

		if err := app.Facade().Save(cmd.Context(), rec); err != nil {
			return fmt.Errorf("ошибка сохранения участка: %w", err)
		}

		color.Green("✓ Участок %q создан (id: %s)", createName, rec.ID)
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createName, "name", "", "имя участка")
	CreateCmd.Flags().Float64Var(&createArea, "area", 0, "площадь, га")
	CreateCmd.Flags().StringVar(&createCrop, "crop", "", "культура")
	CreateCmd.Flags().StringVar(&createSoil, "soil", "", "тип почвы")
}
