package domain

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// RetentionPolicy описывает, сколько хранить строки таблицы отчётной подсистемы VMS
// и нужно ли архивировать их перед удалением.
// Инварианты (PolicyID уникален, RetentionMonths >= 0, CreatedAt не меняется) — контрактные,
// сам тип их не проверяет. См. ValidateRetentionPolicy.
type RetentionPolicy struct {
	PolicyID            uuid.UUID `json:"policy_id"`
	TableName           string    `json:"table_name" validate:"required,max=63"`
	RetentionMonths     int       `json:"retention_months" validate:"gte=0"`
	ArchiveBeforeDelete bool      `json:"archive_before_delete"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewRetentionPolicy собирает запись по полному списку полей.
func NewRetentionPolicy(
	policyID uuid.UUID,
	tableName string,
	retentionMonths int,
	archiveBeforeDelete bool,
	isActive bool,
	createdAt time.Time,
) RetentionPolicy {
	return RetentionPolicy{
		PolicyID:            policyID,
		TableName:           tableName,
		RetentionMonths:     retentionMonths,
		ArchiveBeforeDelete: archiveBeforeDelete,
		IsActive:            isActive,
		CreatedAt:           createdAt,
	}
}

// Equal — структурное сравнение по всем полям.
// CreatedAt равны, только если совпадают и момент времени, и смещение зоны.
func (p RetentionPolicy) Equal(o RetentionPolicy) bool {
	return p.PolicyID == o.PolicyID &&
		p.TableName == o.TableName &&
		p.RetentionMonths == o.RetentionMonths &&
		p.ArchiveBeforeDelete == o.ArchiveBeforeDelete &&
		p.IsActive == o.IsActive &&
		p.CreatedAt.Equal(o.CreatedAt) &&
		zoneOffset(p.CreatedAt) == zoneOffset(o.CreatedAt)
}

// Hash согласован с Equal: равные записи дают равный хэш.
func (p RetentionPolicy) Hash() uint64 {
	buf := make([]byte, 0, 64+len(p.TableName))
	buf = append(buf, p.PolicyID[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.TableName)))
	buf = append(buf, p.TableName...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(int64(p.RetentionMonths)))
	buf = append(buf, boolByte(p.ArchiveBeforeDelete), boolByte(p.IsActive))
	// UnixNano не определён для нулевого time.Time, поэтому секунды и наносекунды отдельно
	buf = binary.BigEndian.AppendUint64(buf, uint64(p.CreatedAt.Unix()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(p.CreatedAt.Nanosecond()))
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(zoneOffset(p.CreatedAt))))
	return xxh3.Hash(buf)
}

// String выдаёт стабильное представление со всеми полями.
func (p RetentionPolicy) String() string {
	return fmt.Sprintf(
		"RetentionPolicy{PolicyID: %s, TableName: %s, RetentionMonths: %d, ArchiveBeforeDelete: %t, IsActive: %t, CreatedAt: %s}",
		p.PolicyID,
		strconv.Quote(p.TableName),
		p.RetentionMonths,
		p.ArchiveBeforeDelete,
		p.IsActive,
		p.CreatedAt.Format(time.RFC3339Nano),
	)
}

// Cutoff возвращает момент, строки старше которого выходят за окно хранения.
// RetentionMonths == 0 означает, что окно не задано: ok == false.
func (p RetentionPolicy) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	if p.RetentionMonths <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, -p.RetentionMonths, 0), true
}

func zoneOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
