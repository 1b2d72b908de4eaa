package repository

import (
	"account-provisioning/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Principal PrincipalRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Principal: NewPrincipalRepository(db, log),
	}
}
