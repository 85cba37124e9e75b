package audit

import (
	"time"

	"github.com/xela07ax/vms-retention/internal/domain"
)

// Action — что произошло с политикой в реестре.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ChangeEvent — запись журнала изменений реестра политик хранения.
type ChangeEvent struct {
	ID        string                 `json:"id"`         // UUID события
	TraceID   string                 `json:"trace_id"`   // X-Request-ID запроса админки
	Action    Action                 `json:"action"`     // CREATE / UPDATE / DELETE
	PolicyID  string                 `json:"policy_id"`  // какая политика
	TableName string                 `json:"table_name"` // какую таблицу она регулирует
	Snapshot  domain.RetentionPolicy `json:"snapshot"`   // состояние после изменения (до — для DELETE)
	Timestamp time.Time              `json:"timestamp"`
}
