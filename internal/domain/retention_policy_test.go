package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testID      = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testCreated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func fullPolicy() RetentionPolicy {
	return NewRetentionPolicyBuilder().
		PolicyID(testID).
		TableName("events").
		RetentionMonths(12).
		ArchiveBeforeDelete(true).
		IsActive(true).
		CreatedAt(testCreated).
		Build()
}

func TestBuilderAllFields(t *testing.T) {
	p := fullPolicy()

	assert.Equal(t, testID, p.PolicyID)
	assert.Equal(t, "events", p.TableName)
	assert.Equal(t, 12, p.RetentionMonths)
	assert.True(t, p.ArchiveBeforeDelete)
	assert.True(t, p.IsActive)
	assert.True(t, testCreated.Equal(p.CreatedAt))
}

func TestFullConstructorMatchesBuilder(t *testing.T) {
	p := NewRetentionPolicy(testID, "events", 12, true, true, testCreated)
	assert.True(t, p.Equal(fullPolicy()))
	assert.Equal(t, fullPolicy(), p)
}

func TestDefaultIsZero(t *testing.T) {
	var p RetentionPolicy

	assert.Equal(t, uuid.Nil, p.PolicyID)
	assert.Empty(t, p.TableName)
	assert.Zero(t, p.RetentionMonths)
	assert.False(t, p.ArchiveBeforeDelete)
	assert.False(t, p.IsActive)
	assert.True(t, p.CreatedAt.IsZero())
	assert.True(t, p.Equal(NewRetentionPolicyBuilder().Build()))
}

func TestBuilderPartial(t *testing.T) {
	p := NewRetentionPolicyBuilder().TableName("alarms").RetentionMonths(3).Build()

	assert.Equal(t, "alarms", p.TableName)
	assert.Equal(t, 3, p.RetentionMonths)
	assert.Equal(t, uuid.Nil, p.PolicyID)
	assert.False(t, p.ArchiveBeforeDelete)
	assert.False(t, p.IsActive)
	assert.True(t, p.CreatedAt.IsZero())
}

func TestBuildReturnsIndependentCopies(t *testing.T) {
	b := NewRetentionPolicyBuilder().TableName("events")
	first := b.Build()
	second := b.RetentionMonths(6).Build()

	assert.Zero(t, first.RetentionMonths)
	assert.Equal(t, 6, second.RetentionMonths)
}

func TestFieldRoundTrip(t *testing.T) {
	var p RetentionPolicy
	id := uuid.New()
	created := time.Date(2023, 6, 15, 10, 30, 0, 0, time.FixedZone("MSK", 3*3600))

	p.PolicyID = id
	p.TableName = "camera_logs"
	p.RetentionMonths = 24
	p.ArchiveBeforeDelete = true
	p.IsActive = false
	p.CreatedAt = created

	assert.Equal(t, id, p.PolicyID)
	assert.Equal(t, "camera_logs", p.TableName)
	assert.Equal(t, 24, p.RetentionMonths)
	assert.True(t, p.ArchiveBeforeDelete)
	assert.False(t, p.IsActive)
	assert.Equal(t, created, p.CreatedAt)
}

func TestEqualAndHash(t *testing.T) {
	a, b := fullPolicy(), fullPolicy()

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	b.IsActive = false
	assert.False(t, a.Equal(b))
}

func TestEqualEachFieldMatters(t *testing.T) {
	mutations := map[string]func(p *RetentionPolicy){
		"policy_id":             func(p *RetentionPolicy) { p.PolicyID = uuid.New() },
		"table_name":            func(p *RetentionPolicy) { p.TableName = "alarms" },
		"retention_months":      func(p *RetentionPolicy) { p.RetentionMonths = 13 },
		"archive_before_delete": func(p *RetentionPolicy) { p.ArchiveBeforeDelete = false },
		"is_active":             func(p *RetentionPolicy) { p.IsActive = false },
		"created_at":            func(p *RetentionPolicy) { p.CreatedAt = p.CreatedAt.Add(time.Second) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			base := fullPolicy()
			changed := fullPolicy()
			mutate(&changed)

			assert.False(t, base.Equal(changed))
			assert.NotEqual(t, base.Hash(), changed.Hash())
		})
	}
}

func TestEqualConsidersOffset(t *testing.T) {
	utc := fullPolicy()
	shifted := fullPolicy()
	shifted.CreatedAt = testCreated.In(time.FixedZone("+03", 3*3600))

	require.True(t, utc.CreatedAt.Equal(shifted.CreatedAt))
	assert.False(t, utc.Equal(shifted))

	// та же зона под другим указателем *time.Location — равны
	sameOffset := fullPolicy()
	sameOffset.CreatedAt = testCreated.In(time.FixedZone("UTC", 0))
	assert.True(t, utc.Equal(sameOffset))
	assert.Equal(t, utc.Hash(), sameOffset.Hash())
}

func TestZeroValueHashIsStable(t *testing.T) {
	var a, b RetentionPolicy
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestStringContainsEveryField(t *testing.T) {
	s := fullPolicy().String()

	for _, want := range []string{
		"00000000-0000-0000-0000-000000000001",
		`"events"`,
		"RetentionMonths: 12",
		"ArchiveBeforeDelete: true",
		"IsActive: true",
		"2024-01-01T00:00:00Z",
	} {
		assert.True(t, strings.Contains(s, want), "%q not in %q", want, s)
	}
	assert.Equal(t, s, fullPolicy().String())
}

func TestCutoff(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

	p := fullPolicy()
	cutoff, ok := p.Cutoff(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 31, 12, 0, 0, 0, time.UTC), cutoff)

	p.RetentionMonths = 0
	_, ok = p.Cutoff(now)
	assert.False(t, ok)
}

func TestValidateRetentionPolicy(t *testing.T) {
	assert.NoError(t, ValidateRetentionPolicy(fullPolicy(), nil))
	assert.NoError(t, ValidateRetentionPolicy(fullPolicy(), []string{"events", "alarms"}))

	noTable := fullPolicy()
	noTable.TableName = ""
	assert.True(t, errors.Is(ValidateRetentionPolicy(noTable, nil), ErrInvalidPolicy))

	negative := fullPolicy()
	negative.RetentionMonths = -1
	assert.ErrorIs(t, ValidateRetentionPolicy(negative, nil), ErrInvalidPolicy)

	assert.ErrorIs(t, ValidateRetentionPolicy(fullPolicy(), []string{"alarms"}), ErrUnknownTable)
}
