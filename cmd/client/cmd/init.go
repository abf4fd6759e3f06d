// cmd/client/cmd/init.go
package cmd

import (
	"agrosync/cmd/client/cmd/auth"
	"agrosync/cmd/client/cmd/chat"
	"agrosync/cmd/client/cmd/parcel"
	"agrosync/cmd/client/cmd/profile"
	"agrosync/cmd/client/cmd/schedule"
	"agrosync/cmd/client/cmd/sync"
)

func init() {
	// Команды аутентификации
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	// Команды работы с данными хозяйства
	rootCmd.AddCommand(parcel.ParcelCmd)
	parcel.ParcelCmd.AddCommand(parcel.CreateCmd)
	parcel.ParcelCmd.AddCommand(parcel.ListCmd)
	parcel.ParcelCmd.AddCommand(parcel.RemoveCmd)

	rootCmd.AddCommand(schedule.ScheduleCmd)
	schedule.ScheduleCmd.AddCommand(schedule.ListCmd)

	rootCmd.AddCommand(profile.ProfileCmd)
	profile.ProfileCmd.AddCommand(profile.ShowCmd)

	rootCmd.AddCommand(chat.ChatCmd)
	chat.ChatCmd.AddCommand(chat.ListCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
