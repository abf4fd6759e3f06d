package syncengine

import (
	"time"

	"agrosync/internal/domain/entity"
)

// Сообщения результата, видимые вызывающему. Нарушения безопасности
// не показываются пользователю дословно: он видит общий призыв
// заново войти в систему.
const (
	MsgAlreadyInProgress = "Sync already in progress"
	MsgCompleted         = "Sync completed"
	MsgCompletedWithErrs = "Sync completed with errors"
	MsgOffline           = "Device is offline, sync deferred"
	MsgMissingContext    = "Sync deferred: no authenticated context"
	MsgReauthenticate    = "Please sign in again"
)

// Conflict — один зафиксированный конфликт цикла.
type Conflict struct {
	Type       entity.Type `json:"type"`
	ID         string      `json:"id"`
	Resolution string      `json:"resolution"`
}

// ResolutionServerWin — сервер победил по времени модификации.
const ResolutionServerWin = "server_win"

// Result — результат одного цикла синхронизации. Создается целиком:
// либо цикл вернул полный результат, либо прервался до его создания.
type Result struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Conflicts  []Conflict    `json:"conflicts"`
	Errors     []string      `json:"errors"`
	Downloaded int           `json:"downloaded"`
	Uploaded   int           `json:"uploaded"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
}

func newResult() *Result {
	return &Result{
		StartTime: time.Now(),
		Conflicts: []Conflict{},
		Errors:    []string{},
	}
}

func (r *Result) finish(success bool, message string) *Result {
	r.Success = success
	r.Message = message
	r.Duration = time.Since(r.StartTime)
	return r
}
