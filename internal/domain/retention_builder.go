package domain

import (
	"time"

	"github.com/google/uuid"
)

// RetentionPolicyBuilder собирает RetentionPolicy по именованным полям.
// Незаданные поля остаются нулевыми, валидации нет — это забота вызывающего.
type RetentionPolicyBuilder struct {
	p RetentionPolicy
}

func NewRetentionPolicyBuilder() *RetentionPolicyBuilder {
	return &RetentionPolicyBuilder{}
}

func (b *RetentionPolicyBuilder) PolicyID(id uuid.UUID) *RetentionPolicyBuilder {
	b.p.PolicyID = id
	return b
}

func (b *RetentionPolicyBuilder) TableName(name string) *RetentionPolicyBuilder {
	b.p.TableName = name
	return b
}

func (b *RetentionPolicyBuilder) RetentionMonths(months int) *RetentionPolicyBuilder {
	b.p.RetentionMonths = months
	return b
}

func (b *RetentionPolicyBuilder) ArchiveBeforeDelete(archive bool) *RetentionPolicyBuilder {
	b.p.ArchiveBeforeDelete = archive
	return b
}

func (b *RetentionPolicyBuilder) IsActive(active bool) *RetentionPolicyBuilder {
	b.p.IsActive = active
	return b
}

func (b *RetentionPolicyBuilder) CreatedAt(t time.Time) *RetentionPolicyBuilder {
	b.p.CreatedAt = t
	return b
}

// Build возвращает копию: builder можно продолжать использовать.
func (b *RetentionPolicyBuilder) Build() RetentionPolicy {
	return b.p
}
