package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriority_Rank(t *testing.T) {
	ps := []Priority{PriorityHigh, PriorityLow, PriorityUrgent, PriorityMedium}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Rank() > ps[j].Rank() })
	assert.Equal(t, []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}, ps)
	assert.Equal(t, 0, Priority("NOPE").Rank())
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority(" high ")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("critical")
	assert.False(t, ok)
}

func TestRole_CanWrite(t *testing.T) {
	assert.True(t, RoleAdmin.CanWrite())
	assert.True(t, RoleEditor.CanWrite())
	assert.False(t, RoleViewer.CanWrite())
}
