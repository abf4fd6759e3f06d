package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"agrosync/cmd/client/cmd/types"
	"agrosync/internal/app/client"
)

var showStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизация с сервером",
	Long: `Явный запуск цикла синхронизации (pull-to-refresh).

Цикл загружает авторитетное состояние с сервера, выгружает отложенные
локальные изменения и разрешает конфликты по времени модификации.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}
		defer app.Shutdown()

		if showStatus {
			return printStatus(cmd.Context(), app)
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: agrosync auth login")
	}

	fmt.Println("Запуск синхронизации...")

	result := app.PerformSync(ctx, true)

	if !result.Success {
		color.Red("✗ %s", result.Message)
		for _, e := range result.Errors {
			fmt.Printf("  • %s\n", e)
		}
		return nil
	}

	color.Green("✓ %s", result.Message)
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Загружено с сервера: %d записей\n", result.Downloaded)
	fmt.Printf("Выгружено на сервер: %d записей\n", result.Uploaded)

	if len(result.Conflicts) > 0 {
		color.Yellow("Конфликтов: %d", len(result.Conflicts))
		for _, c := range result.Conflicts {
			fmt.Printf("  • %s %s — %s\n", c.Type, c.ID, c.Resolution)
		}
	}

	return nil
}

func printStatus(ctx context.Context, app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	if t, ok := app.Engine().LastSyncTime(ctx); ok {
		fmt.Printf("Последняя успешная: %s\n", t.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Синхронизация еще не выполнялась.")
	}

	fmt.Printf("Выполняется сейчас: %v\n", app.Engine().IsSyncing())

	if n, err := app.PendingCount(ctx); err == nil {
		fmt.Printf("Ожидают выгрузки: %d записей\n", n)
	}

	fmt.Print("Соединение с сервером: ")
	if err := app.CheckConnection(); err != nil {
		color.Red("недоступно (%v)", err)
	} else {
		color.Green("OK")
	}

	fmt.Print("Аутентификация: ")
	if app.IsAuthenticated() {
		color.Green("выполнена")
	} else {
		color.Yellow("требуется вход")
	}

	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&showStatus, "status", false, "показать статус синхронизации")
}
