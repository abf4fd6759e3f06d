package types

// ContextKey — тип ключей контекста команд.
type ContextKey string

// ClientAppKey — ключ, под которым root-команда кладет собранное
// приложение в контекст подкоманд.
const ClientAppKey ContextKey = "app"
