package app

import (
	"context"
	"fmt"

	auditHTTP "github.com/allisson/occam/internal/audit/http"
	auditRepository "github.com/allisson/occam/internal/audit/repository"
	auditService "github.com/allisson/occam/internal/audit/service"
	auditUseCase "github.com/allisson/occam/internal/audit/usecase"
	sloService "github.com/allisson/occam/internal/slo/service"
)

// AuditHasher returns the chain hasher: HMAC-SHA256 when AUDIT_HMAC_KEY is set, SHA-256 otherwise.
// With AUDIT_KEY_KEEPER_URL the key is unwrapped through the KMS keeper first.
func (c *Container) AuditHasher() (auditService.Hasher, error) {
	var err error
	c.auditHasherInit.Do(func() {
		c.auditHasher, err = c.initAuditHasher()
		if err != nil {
			c.initErrors["auditHasher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHasher"]; exists {
		return nil, storedErr
	}
	return c.auditHasher, nil
}

// AuditRepository returns the audit record repository based on database driver.
func (c *Container) AuditRepository() (auditUseCase.RecordRepository, error) {
	var err error
	c.auditRepositoryInit.Do(func() {
		c.auditRepository, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepository"]; exists {
		return nil, storedErr
	}
	return c.auditRepository, nil
}

// LatencyTracker returns the retrieval latency tracker fed by audit trail reads.
func (c *Container) LatencyTracker() *sloService.LatencyTracker {
	c.latencyTrackerInit.Do(func() {
		c.latencyTracker = sloService.NewLatencyTracker(c.config.SLOLatencyWindow)
	})
	return c.latencyTracker
}

// AuditUseCase returns the audit trail use case.
func (c *Container) AuditUseCase() (auditUseCase.UseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// AuditHandler returns the audit trail HTTP handler.
func (c *Container) AuditHandler() (*auditHTTP.AuditHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

func (c *Container) initAuditHasher() (auditService.Hasher, error) {
	if c.config.AuditHMACKey == "" {
		return auditService.NewSHA256Hasher(), nil
	}

	secret := []byte(c.config.AuditHMACKey)
	if c.config.AuditKeyKeeperURL != "" {
		unwrapped, err := auditService.UnwrapChainSecret(
			context.Background(),
			c.config.AuditKeyKeeperURL,
			c.config.AuditHMACKey,
		)
		if err != nil {
			return nil, err
		}
		secret = unwrapped
	}

	hasher, err := auditService.NewHMACHasher(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit hmac hasher: %w", err)
	}
	return hasher, nil
}

func (c *Container) initAuditRepository() (auditUseCase.RecordRepository, error) {
	if c.InMemory() {
		return auditRepository.NewMemoryRecordRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return auditRepository.NewMySQLRecordRepository(db), nil
	case "postgres":
		return auditRepository.NewPostgreSQLRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAuditUseCase() (auditUseCase.UseCase, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit use case: %w", err)
	}

	hasher, err := c.AuditHasher()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit hasher for audit use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for audit use case: %w", err)
	}

	complianceMetrics, err := c.ComplianceMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance metrics for audit use case: %w", err)
	}

	useCase := auditUseCase.NewAuditUseCase(
		auditUseCase.Config{AppendRetries: c.config.AuditAppendRetries},
		repo,
		hasher,
		c.LatencyTracker(),
		c.Logger(),
	)
	return auditUseCase.NewAuditUseCaseWithMetrics(useCase, businessMetrics, complianceMetrics), nil
}

func (c *Container) initAuditHandler() (*auditHTTP.AuditHandler, error) {
	useCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for audit handler: %w", err)
	}
	return auditHTTP.NewAuditHandler(useCase, c.Logger()), nil
}
