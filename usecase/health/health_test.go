package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/users-api/domain"
)

type fixedChecker domain.ComponentHealth

func (f fixedChecker) Check(context.Context) domain.ComponentHealth { return domain.ComponentHealth(f) }

type fixedProbe domain.ComponentHealth

func (f fixedProbe) Health(context.Context) domain.ComponentHealth { return domain.ComponentHealth(f) }

var (
	dbUp     = fixedChecker{Status: domain.HealthHealthy}
	dbDown   = fixedChecker{Status: domain.HealthUnhealthy}
	extUp    = fixedProbe{Status: domain.ExternalActive}
	extDown  = fixedProbe{Status: domain.ExternalInactive}
	extError = fixedProbe{Status: domain.ExternalError}
)

func TestBasic(t *testing.T) {
	report := New(dbUp, extUp, "1.2.3", nil).Basic()
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "1.2.3", report.Version)
}

func TestDetailedStatusRules(t *testing.T) {
	tests := []struct {
		name     string
		db       Checker
		external fixedProbe
		want     string
	}{
		{"all up", dbUp, extUp, domain.HealthHealthy},
		{"external inactive", dbUp, extDown, domain.HealthDegraded},
		{"external error", dbUp, extError, domain.HealthDegraded},
		{"database down", dbDown, extUp, domain.HealthUnhealthy},
		{"database down wins", dbDown, extError, domain.HealthUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(tt.db, tt.external, "1.0.0", nil).Detailed(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Contains(t, report.Components, ComponentDatabase)
			assert.Contains(t, report.Components, ComponentExternal)
			assert.NotEmpty(t, report.Timestamp)
		})
	}
}

func TestExtraCheckerIsInformational(t *testing.T) {
	uc := New(dbUp, extUp, "1.0.0", nil).WithChecker("redis", dbDown)

	report := uc.Detailed(context.Background())
	assert.Equal(t, domain.HealthHealthy, report.Status)
	assert.Equal(t, domain.HealthUnhealthy, report.Components["redis"].Status)
}
