package syncengine

import (
	"errors"
)

// Таксономия ошибок цикла синхронизации.
var (
	// ErrSyncInProgress — цикл уже выполняется; повторный запуск
	// не ставится в очередь.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMissingContext — арендатор или фермер еще не установлены.
	// Не фатально: следующий триггер перепроверит условия.
	ErrMissingContext = errors.New("tenant context is missing")

	// ErrInvalidAuthData — идентификаторы пусты после обрезки
	// пробелов; поврежденное состояние, требуется повторный вход.
	ErrInvalidAuthData = errors.New("invalid auth data")

	// ErrTenantMismatch — независимо полученные идентификаторы
	// арендатора не совпали. Нарушение безопасности: цикл
	// прерывается и никогда не повторяется молча.
	ErrTenantMismatch = errors.New("tenant id mismatch")

	// ErrFarmerMismatch — фермер сессии не совпал с фермером
	// контекста. Та же категория нарушения, что и ErrTenantMismatch.
	ErrFarmerMismatch = errors.New("farmer id mismatch")

	// ErrNetworkFailure — сбой сетевого вызова на фазе загрузки;
	// частичная загрузка небезопасна из-за полной замены данных.
	ErrNetworkFailure = errors.New("network failure")

	// ErrVerificationMismatch — число записей после загрузки не
	// совпало с полученным; жесткая ошибка, не повторяется молча.
	ErrVerificationMismatch = errors.New("post-download verification mismatch")

	// ErrNoConnectivity — устройство офлайн, синхронизация отложена.
	ErrNoConnectivity = errors.New("device is offline")
)
