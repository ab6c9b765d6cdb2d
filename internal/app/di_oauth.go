package app

import (
	"fmt"

	oauthDomain "github.com/allisson/authserver/internal/oauth/domain"
	oauthHTTP "github.com/allisson/authserver/internal/oauth/http"
	oauthRepository "github.com/allisson/authserver/internal/oauth/repository"
	oauthCache "github.com/allisson/authserver/internal/oauth/repository/cache"
	oauthService "github.com/allisson/authserver/internal/oauth/service"
	oauthUseCase "github.com/allisson/authserver/internal/oauth/usecase"
)

// SecretService returns the service that generates and verifies client secrets.
func (c *Container) SecretService() oauthService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = oauthService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the service that mints codes and tokens.
func (c *Container) TokenService() oauthService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = oauthService.NewTokenService()
	})
	return c.tokenService
}

// ScopeResolver returns the resolver built from the scope catalog and the configured baseline scope.
func (c *Container) ScopeResolver() *oauthDomain.ScopeResolver {
	c.scopeResolverInit.Do(func() {
		c.scopeResolver = oauthDomain.NewScopeResolver(oauthDomain.ScopeCatalog, c.config.BaselineScope)
	})
	return c.scopeResolver
}

// ClientRepository returns the client repository based on database driver, fronted by
// the Redis cache when REDIS_URL is configured.
func (c *Container) ClientRepository() (oauthUseCase.ClientRepository, error) {
	var err error
	c.clientRepositoryInit.Do(func() {
		c.clientRepository, err = c.initClientRepository()
		if err != nil {
			c.setInitError("clientRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("clientRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.clientRepository, nil
}

// AuthorizationCodeRepository returns the authorization code repository based on database driver.
func (c *Container) AuthorizationCodeRepository() (oauthUseCase.AuthorizationCodeRepository, error) {
	var err error
	c.codeRepositoryInit.Do(func() {
		c.codeRepository, err = c.initAuthorizationCodeRepository()
		if err != nil {
			c.setInitError("codeRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("codeRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.codeRepository, nil
}

// TokenRepository returns the token repository based on database driver.
func (c *Container) TokenRepository() (oauthUseCase.TokenRepository, error) {
	var err error
	c.tokenRepositoryInit.Do(func() {
		c.tokenRepository, err = c.initTokenRepository()
		if err != nil {
			c.setInitError("tokenRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("tokenRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.tokenRepository, nil
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (oauthUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.setInitError("auditLogRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// ClientUseCase returns the client registration use case.
func (c *Container) ClientUseCase() (oauthUseCase.ClientUseCase, error) {
	var err error
	c.clientUseCaseInit.Do(func() {
		c.clientUseCase, err = c.initClientUseCase()
		if err != nil {
			c.setInitError("clientUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("clientUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.clientUseCase, nil
}

// AuthorizeUseCase returns the authorization code issuance use case.
func (c *Container) AuthorizeUseCase() (oauthUseCase.AuthorizeUseCase, error) {
	var err error
	c.authorizeUseCaseInit.Do(func() {
		c.authorizeUseCase, err = c.initAuthorizeUseCase()
		if err != nil {
			c.setInitError("authorizeUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("authorizeUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.authorizeUseCase, nil
}

// TokenUseCase returns the token endpoint use case.
func (c *Container) TokenUseCase() (oauthUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.setInitError("tokenUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("tokenUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (oauthUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.setInitError("auditLogUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuthorizeHandler returns the HTTP handler for POST /oauth/authorize.
func (c *Container) AuthorizeHandler() (*oauthHTTP.AuthorizeHandler, error) {
	var err error
	c.authorizeHandlerInit.Do(func() {
		c.authorizeHandler, err = c.initAuthorizeHandler()
		if err != nil {
			c.setInitError("authorizeHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("authorizeHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.authorizeHandler, nil
}

// TokenHandler returns the HTTP handler for POST /oauth/token.
func (c *Container) TokenHandler() (*oauthHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.setInitError("tokenHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("tokenHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// UserInfoHandler returns the HTTP handler for GET /oauth/userinfo.
func (c *Container) UserInfoHandler() *oauthHTTP.UserInfoHandler {
	c.userInfoHandlerInit.Do(func() {
		c.userInfoHandler = oauthHTTP.NewUserInfoHandler(c.Logger())
	})
	return c.userInfoHandler
}

// initClientRepository creates the client repository based on the database driver.
func (c *Container) initClientRepository() (oauthUseCase.ClientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for client repository: %w", err)
	}

	var repo oauthUseCase.ClientRepository
	switch c.config.DBDriver {
	case "mysql":
		repo = oauthRepository.NewMySQLClientRepository(db)
	case "postgres":
		repo = oauthRepository.NewPostgreSQLClientRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	redisClient, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for client repository: %w", err)
	}
	if redisClient == nil {
		return repo, nil
	}

	return oauthCache.NewRedisClientRepository(repo, redisClient, c.config.ClientCacheTTL, c.Logger()), nil
}

// initAuthorizationCodeRepository creates the authorization code repository based on the database driver.
func (c *Container) initAuthorizationCodeRepository() (oauthUseCase.AuthorizationCodeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for authorization code repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return oauthRepository.NewMySQLAuthorizationCodeRepository(db), nil
	case "postgres":
		return oauthRepository.NewPostgreSQLAuthorizationCodeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenRepository creates the token repository based on the database driver.
func (c *Container) initTokenRepository() (oauthUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return oauthRepository.NewMySQLTokenRepository(db), nil
	case "postgres":
		return oauthRepository.NewPostgreSQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogRepository creates the audit log repository based on the database driver.
func (c *Container) initAuditLogRepository() (oauthUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return oauthRepository.NewMySQLAuditLogRepository(db), nil
	case "postgres":
		return oauthRepository.NewPostgreSQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initClientUseCase creates the client use case with all its dependencies.
func (c *Container) initClientUseCase() (oauthUseCase.ClientUseCase, error) {
	clientRepository, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for client use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewClientUseCase(clientRepository, c.SecretService(), c.ScopeResolver())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for client use case: %w", err)
		}
		return oauthUseCase.NewClientUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthorizeUseCase creates the authorize use case with all its dependencies.
func (c *Container) initAuthorizeUseCase() (oauthUseCase.AuthorizeUseCase, error) {
	clientRepository, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for authorize use case: %w", err)
	}

	codeRepository, err := c.AuthorizationCodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code repository for authorize use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for authorize use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewAuthorizeUseCase(
		clientRepository,
		codeRepository,
		c.TokenService(),
		c.ScopeResolver(),
		auditLogUseCase,
		c.config.AuthorizationCodeExpiration,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for authorize use case: %w", err)
		}
		return oauthUseCase.NewAuthorizeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (oauthUseCase.TokenUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for token use case: %w", err)
	}

	clientRepository, err := c.ClientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get client repository for token use case: %w", err)
	}

	codeRepository, err := c.AuthorizationCodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code repository for token use case: %w", err)
	}

	tokenRepository, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}

	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for token use case: %w", err)
	}

	baseUseCase := oauthUseCase.NewTokenUseCase(
		oauthUseCase.TokenConfig{
			AccessTokenPrefix:      c.config.AccessTokenPrefix,
			AccessTokenExpiration:  c.config.AccessTokenExpiration,
			RefreshTokenExpiration: c.config.RefreshTokenExpiration,
		},
		txManager,
		clientRepository,
		codeRepository,
		tokenRepository,
		c.SecretService(),
		c.TokenService(),
		c.ScopeResolver(),
		auditLogUseCase,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return oauthUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (oauthUseCase.AuditLogUseCase, error) {
	auditLogRepository, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	return oauthUseCase.NewAuditLogUseCase(auditLogRepository, c.Logger()), nil
}

// initAuthorizeHandler creates the authorize HTTP handler.
func (c *Container) initAuthorizeHandler() (*oauthHTTP.AuthorizeHandler, error) {
	authorizeUseCase, err := c.AuthorizeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorize use case for authorize handler: %w", err)
	}

	return oauthHTTP.NewAuthorizeHandler(authorizeUseCase, c.config.SubjectHeader, c.Logger()), nil
}

// initTokenHandler creates the token HTTP handler.
func (c *Container) initTokenHandler() (*oauthHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}

	return oauthHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
}
